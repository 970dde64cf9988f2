package params

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Cascade/internal/domain"
)

func TestEndpointPath(t *testing.T) {
	tests := []struct {
		name           string
		endpointType   domain.EndpointType
		multiContainer bool
		want           string
	}{
		{
			name:         "async",
			endpointType: domain.EndpointAsync,
			want:         "/input-dependent/async/scorer",
		},
		{
			name:         "real-time single container",
			endpointType: domain.EndpointRealTime,
			want:         "/input-dependent/real-time/scorer",
		},
		{
			name:           "real-time multi container",
			endpointType:   domain.EndpointRealTime,
			multiContainer: true,
			want:           "/input-dependent/real-time/scorer/scorer-ctr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EndpointPath("input-dependent", tt.endpointType, "scorer", "scorer-ctr", tt.multiContainer)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLatestModelPath(t *testing.T) {
	if got := LatestModelPath("scorer"); got != "models-scorer" {
		t.Errorf("unexpected path %q", got)
	}
}

func TestMemory_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()

	if err := dir.Put(ctx, "/k/real-time/a", "a"); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Перезапись.
	if err := dir.Put(ctx, "/k/real-time/a", "a2"); err != nil {
		t.Fatalf("put overwrite: %v", err)
	}
	value, err := dir.Get(ctx, "/k/real-time/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "a2" {
		t.Errorf("expected a2, got %q", value)
	}

	if err := dir.Delete(ctx, "/k/real-time/a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := dir.Get(ctx, "/k/real-time/a"); !errors.Is(err, ErrParamNotFound) {
		t.Errorf("expected ErrParamNotFound, got %v", err)
	}
	if err := dir.Delete(ctx, "/k/real-time/a"); !errors.Is(err, ErrParamNotFound) {
		t.Errorf("expected ErrParamNotFound on double delete, got %v", err)
	}
}

func TestMemory_EmptyPath(t *testing.T) {
	dir := NewMemory()
	if err := dir.Put(context.Background(), "", "x"); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("expected ErrEmptyPath, got %v", err)
	}
}

func TestMemory_ListPrefix(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()

	seed := map[string]string{
		"/group-a/real-time/zeta":  "zeta",
		"/group-a/real-time/alpha": "alpha",
		"/group-b/async/beta":      "beta",
		"models-alpha":             "alpha-20240101",
	}
	for path, value := range seed {
		if err := dir.Put(ctx, path, value); err != nil {
			t.Fatalf("put %s: %v", path, err)
		}
	}

	got, err := dir.List(ctx, GroupPrefix("group-a"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 params, got %d", len(got))
	}
	// Сортировка по пути.
	if got[0].Path != "/group-a/real-time/alpha" || got[1].Path != "/group-a/real-time/zeta" {
		t.Errorf("unexpected order: %s, %s", got[0].Path, got[1].Path)
	}
}
