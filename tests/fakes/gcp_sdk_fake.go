package fakes

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// FakeSecretManagerServer backs a real Secret Manager client with in-memory
// data over a local gRPC connection, so source tests exercise the actual
// client stack including status code mapping.
type FakeSecretManagerServer struct {
	secretmanagerpb.UnimplementedSecretManagerServiceServer

	mu       sync.Mutex
	versions map[string][]byte
	errors   map[string]error
	secrets  []string
}

// NewFakeSecretManagerServer creates an empty fake.
func NewFakeSecretManagerServer() *FakeSecretManagerServer {
	return &FakeSecretManagerServer{
		versions: make(map[string][]byte),
		errors:   make(map[string]error),
	}
}

// AddSecretString registers a payload for projects/<project>/secrets/<name>
// under both the given version and "latest".
func (f *FakeSecretManagerServer) AddSecretString(project, name, version, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secretName := "projects/" + project + "/secrets/" + name
	f.versions[secretName+"/versions/"+version] = []byte(value)
	f.versions[secretName+"/versions/latest"] = []byte(value)
	f.secrets = append(f.secrets, secretName)
}

// AddError makes AccessSecretVersion fail for one version resource name.
func (f *FakeSecretManagerServer) AddError(resourceName string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[resourceName] = err
}

func (f *FakeSecretManagerServer) AccessSecretVersion(_ context.Context,
	req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.errors[req.Name]; ok {
		return nil, err
	}

	data, ok := f.versions[req.Name]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "secret version %s not found", req.Name)
	}

	return &secretmanagerpb.AccessSecretVersionResponse{
		Name: req.Name,
		Payload: &secretmanagerpb.SecretPayload{
			Data: data,
		},
	}, nil
}

func (f *FakeSecretManagerServer) ListSecrets(_ context.Context,
	req *secretmanagerpb.ListSecretsRequest) (*secretmanagerpb.ListSecretsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.errors[req.Parent]; ok {
		return nil, err
	}

	resp := &secretmanagerpb.ListSecretsResponse{}
	for _, name := range f.secrets {
		resp.Secrets = append(resp.Secrets, &secretmanagerpb.Secret{
			Name:       name,
			CreateTime: timestamppb.New(time.Now()),
		})
	}
	resp.TotalSize = int32(len(resp.Secrets))
	return resp, nil
}

// Client serves the fake on a loopback listener and returns a real client
// connected to it. Everything is torn down when the test ends.
func (f *FakeSecretManagerServer) Client(t *testing.T) *secretmanager.Client {
	t.Helper()

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	srv := grpc.NewServer()
	secretmanagerpb.RegisterSecretManagerServiceServer(srv, f)
	go func() {
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial fake server: %v", err)
	}

	client, err := secretmanager.NewClient(context.Background(), option.WithGRPCConn(conn))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
		srv.Stop()
	})
	return client
}
