package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
	"github.com/imrishuroy/kitchen-orderflow/internal/storefront"
)

type fakeAPI struct {
	counts    []int
	calls     int
	listErr   error
	updateErr error
	updated   []string
}

func (f *fakeAPI) AdminOrders(context.Context) ([]orders.Order, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	n := f.counts[len(f.counts)-1]
	if f.calls < len(f.counts) {
		n = f.counts[f.calls]
	}
	f.calls++
	out := make([]orders.Order, n)
	for i := range out {
		out[i] = orders.Order{OrderID: "order:" + string(rune('a'+i)), Status: orders.StatusPending}
	}
	if n > 0 {
		out[0].Status = orders.StatusCompleted
	}
	return out, nil
}

func (f *fakeAPI) UpdateOrderStatus(_ context.Context, key, status string) (*orders.Order, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = append(f.updated, key+"="+status)
	return &orders.Order{OrderID: key, Status: status}, nil
}

func messages(r *storefront.Recorder) []string {
	var out []string
	for _, n := range r.All() {
		out = append(out, n.Message)
	}
	return out
}

func TestPollAnnouncesGrowth(t *testing.T) {
	api := &fakeAPI{counts: []int{3, 3, 5, 6}}
	rec := &storefront.Recorder{}
	d := NewDashboard(api, rec)
	ctx := context.Background()

	d.Poll(ctx)
	d.Poll(ctx)
	assert.Empty(t, rec.All())

	d.Poll(ctx)
	d.Poll(ctx)
	assert.Equal(t, []string{"2 new orders received!", "1 new order received!"}, messages(rec))
	assert.Equal(t, PollState{Count: 6, Established: true}, d.State())
}

func TestPollFromEmptyBaseline(t *testing.T) {
	api := &fakeAPI{counts: []int{0, 1}}
	rec := &storefront.Recorder{}
	d := NewDashboard(api, rec)

	d.Poll(context.Background())
	d.Poll(context.Background())
	assert.Equal(t, []string{"1 new order received!"}, messages(rec))
}

func TestPollFailureKeepsState(t *testing.T) {
	api := &fakeAPI{counts: []int{2}}
	rec := &storefront.Recorder{}
	d := NewDashboard(api, rec)
	d.Poll(context.Background())

	api.listErr = errors.New("down")
	d.Poll(context.Background())
	assert.Equal(t, []string{"Failed to load orders"}, messages(rec))
	assert.Equal(t, PollState{Count: 2, Established: true}, d.State())
	assert.Len(t, d.Filtered(FilterAll), 2)
}

func TestFiltered(t *testing.T) {
	api := &fakeAPI{counts: []int{4}}
	d := NewDashboard(api, &storefront.Recorder{})
	d.Poll(context.Background())

	assert.Len(t, d.Filtered(FilterAll), 4)
	assert.Len(t, d.Filtered(orders.StatusCompleted), 1)
	assert.Len(t, d.Filtered(orders.StatusPending), 3)
	assert.Empty(t, d.Filtered(orders.StatusCancelled))
}

func TestSetStatus(t *testing.T) {
	api := &fakeAPI{counts: []int{1}}
	rec := &storefront.Recorder{}
	d := NewDashboard(api, rec)

	o, err := d.SetStatus(context.Background(), "order:1:u1", orders.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, o.Status)
	assert.Equal(t, []string{"order:1:u1=completed"}, api.updated)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, []string{"Order status updated"}, messages(rec))

	api.updateErr = errors.New("nope")
	_, err = d.SetStatus(context.Background(), "order:1:u1", orders.StatusCancelled)
	require.Error(t, err)
	assert.Equal(t, "Failed to update order status", messages(rec)[1])
}

func TestRunPollsUntilCancelled(t *testing.T) {
	api := &fakeAPI{counts: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}
	d := NewDashboard(api, &storefront.Recorder{}, WithInterval(5*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	err := d.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, api.calls, 2)
}
