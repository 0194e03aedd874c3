package geo

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kaushal/core"
)

type geocoderFunc func(ctx context.Context, lat, lng float64) (Place, error)

func (f geocoderFunc) ReverseGeocode(ctx context.Context, lat, lng float64) (Place, error) {
	return f(ctx, lat, lng)
}

func TestFixed_Locate(t *testing.T) {
	tests := []struct {
		name    string
		locator Fixed
		want    Position
		wantErr error
	}{
		{name: "denied", locator: Fixed{Denied: true}, wantErr: ErrPermissionDenied},
		{name: "no fix", locator: Fixed{}, wantErr: ErrPositionUnavailable},
		{name: "out of range", locator: Fixed{Position: &Position{Latitude: 91}}, wantErr: ErrInvalidPosition},
		{name: "ok", locator: Fixed{Position: &Position{Latitude: 20.3, Longitude: 85.8, Accuracy: 5}}, want: Position{20.3, 85.8, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.locator.Locate(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceName(t *testing.T) {
	pos := Position{Latitude: 20.3, Longitude: 85.8}
	tests := []struct {
		name string
		g    Geocoder
		want string
	}{
		{name: "no geocoder", want: UnknownLocation},
		{
			name: "failure",
			g:    geocoderFunc(func(context.Context, float64, float64) (Place, error) { return Place{}, errors.New("timeout") }),
			want: UnknownLocation,
		},
		{
			name: "empty name",
			g:    geocoderFunc(func(context.Context, float64, float64) (Place, error) { return Place{}, nil }),
			want: UnknownLocation,
		},
		{
			name: "found",
			g:    geocoderFunc(func(context.Context, float64, float64) (Place, error) { return Place{Name: "Cuttack, Odisha"}, nil }),
			want: "Cuttack, Odisha",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlaceName(context.Background(), tt.g, pos, core.NopLogger{}))
		})
	}
}

func TestTask(t *testing.T) {
	ctx := context.Background()

	task := Go(ctx, func(context.Context) (string, error) { return "ok", nil })
	got, err := task.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	<-task.Done()

	errLocate := errors.New("unavailable")
	failed := Go(ctx, func(context.Context) (Position, error) { return Position{}, errLocate })
	_, err = failed.Wait(ctx)
	assert.Equal(t, errLocate, err)

	release := make(chan struct{})
	slow := Go(ctx, func(context.Context) (int, error) { <-release; return 1, nil })
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = slow.Wait(short)
	assert.Equal(t, context.DeadlineExceeded, err)
	close(release)
	n, err := slow.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
