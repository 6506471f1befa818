package catalog

import (
	"context"
	"errors"
	"testing"

	"vastram/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	services []api.Service
	cats     []api.Category
	listErr  error
	catErr   error
}

func (f *fakeSource) List(ctx context.Context, q api.ServiceQuery) ([]api.Service, error) {
	return f.services, f.listErr
}

func (f *fakeSource) Categories(ctx context.Context) ([]api.Category, error) {
	return f.cats, f.catErr
}

var seed = []api.Service{
	{ID: "s1", Name: "Suit Dry Clean", Category: "suits", Price: 450},
	{ID: "s2", Name: "Shirt Wash & Iron", Category: "shirts", Price: 60},
	{ID: "s3", Name: "Saree Dry Clean", Category: "traditional", Price: 350},
	{ID: "s4", Name: "Blazer Press", Category: "suits", Price: 150},
}

func TestResolveCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dry-cleaning", "suits"},
		{"premium-laundry", "shirts"},
		{"bridal-wear", "traditional"},
		{"home-essentials", "home-essentials"},
		{"suits", "suits"},
		{"Traditional", "traditional"},
		{"", All},
		{"curtains", All},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCategory(tt.in))
		})
	}
}

func TestOptions(t *testing.T) {
	require.Len(t, Options, 5)
	assert.Equal(t, "All Services", Options[0].Name)
	assert.Equal(t, "Suits & Formal", OptionName("suits"))
	assert.Equal(t, "unknown", OptionName("unknown"))
}

func TestFilter(t *testing.T) {
	assert.Len(t, Filter(seed, All), 4)
	assert.Len(t, Filter(seed, ""), 4)

	suits := Filter(seed, "suits")
	require.Len(t, suits, 2)
	assert.Equal(t, "s1", suits[0].ID)
	assert.Equal(t, "s4", suits[1].ID)

	assert.Empty(t, Filter(seed, "home-essentials"))
}

func TestLoad_Success(t *testing.T) {
	c := New(&fakeSource{services: seed, cats: []api.Category{{Name: "suits", Count: 2}}})
	require.NoError(t, c.Load(context.Background()))

	assert.False(t, c.IsLoading())
	assert.Empty(t, c.Err())
	assert.Len(t, c.Services(All), 4)
	assert.Len(t, c.Services("traditional"), 1)
	assert.Len(t, c.Categories(), 1)

	s, ok := c.Find("s2")
	require.True(t, ok)
	assert.Equal(t, int64(60), s.Price)
	_, ok = c.Find("missing")
	assert.False(t, ok)
}

func TestLoad_CategoriesFailureIsNotFatal(t *testing.T) {
	c := New(&fakeSource{services: seed, catErr: errors.New("boom")})
	require.NoError(t, c.Load(context.Background()))
	assert.Empty(t, c.Err())
	assert.Len(t, c.Services(All), 4)
	assert.Empty(t, c.Categories())
}

func TestLoad_ServicesFailure(t *testing.T) {
	src := &fakeSource{services: seed}
	c := New(src)
	require.NoError(t, c.Load(context.Background()))

	src.listErr = errors.New("connection refused")
	err := c.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgLoadFailed, c.Err())
	assert.Len(t, c.Services(All), 4, "previous list is kept for retry")

	src.listErr = nil
	require.NoError(t, c.Load(context.Background()))
	assert.Empty(t, c.Err())
}

func TestItemFor(t *testing.T) {
	it := ItemFor(api.Service{ID: "s1", Name: "Suit", Price: 450, Category: "suits", ProcessingTime: "48 hours"})
	assert.Equal(t, "s1", it.ServiceID)
	assert.Equal(t, int64(450), it.UnitPrice)
	assert.Equal(t, 1, it.Quantity)
	assert.Equal(t, "48 hours", it.ProcessingTime)
}
