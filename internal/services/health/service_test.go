package health

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type flagChecker struct {
	healthy atomic.Bool
}

func (f *flagChecker) Healthy() bool { return f.healthy.Load() }

func TestHealthFollowsChecker(t *testing.T) {
	checker := &flagChecker{}
	svc := NewService(checker, 10*time.Millisecond)

	lis := bufconn.Listen(1 << 20)
	go svc.Serve(lis)
	defer svc.Shutdown(context.Background())

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status, err := CheckConn(ctx, conn)
	if err != nil {
		t.Fatalf("CheckConn() error = %v", err)
	}
	if status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v before frames flow, want NOT_SERVING", status)
	}

	checker.healthy.Store(true)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		status, err = CheckConn(ctx, conn)
		if err == nil && status == healthpb.HealthCheckResponse_SERVING {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v after checker turned healthy, want SERVING", status)
	}
	if !svc.Serving() {
		t.Error("Serving() = false")
	}
}

func TestNilCheckerIsNotServing(t *testing.T) {
	svc := NewService(nil, 0)
	if svc.Serving() {
		t.Error("Serving() = true without a checker")
	}
	if err := svc.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestCheckDialsAddress(t *testing.T) {
	checker := &flagChecker{}
	checker.healthy.Store(true)
	svc := NewService(checker, 10*time.Millisecond)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go svc.Serve(lis)
	defer svc.Shutdown(context.Background())

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	deadAddr := closed.Addr().String()
	closed.Close()

	tests := []struct {
		name    string
		addr    string
		want    healthpb.HealthCheckResponse_ServingStatus
		wantErr bool
	}{
		{name: "serving worker", addr: lis.Addr().String(), want: healthpb.HealthCheckResponse_SERVING},
		{name: "nothing listening", addr: deadAddr, want: healthpb.HealthCheckResponse_UNKNOWN, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			got, err := Check(ctx, tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}
