// ABOUTME: Generic list controller: search, paging, sorting and delete over a list source
// ABOUTME: Debounces search text, fetches page then count, and applies only the latest reload
package controller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/bolha/clock"
	"github.com/harperreed/bolha/models"
)

// DefaultSearchDebounce is the quiet window before a search reload.
const DefaultSearchDebounce = time.Second

// ListSource is the backend a list controller reads from.
type ListSource[T any] interface {
	List(ctx context.Context, q models.ListQuery) ([]T, error)
	Count(ctx context.Context, search string) (int, error)
	Delete(ctx context.Context, id string) error
}

// ListState is a snapshot of a list controller.
type ListState[T any] struct {
	Rows    []T
	Total   int
	Query   models.ListQuery
	Loading bool
	Mounted bool
}

// ListOptions configures a List.
type ListOptions struct {
	Clock       clock.Clock
	Debounce    time.Duration
	RowsPerPage int
	Logger      *zap.Logger
}

// List drives one list screen.
type List[T any] struct {
	src       ListSource[T]
	debouncer *clock.Debouncer
	logger    *zap.Logger

	mu       sync.Mutex
	baseCtx  context.Context
	state    ListState[T]
	seq      uint64
	inflight int
	closed   bool
	onChange func()
}

// NewList creates a controller over src. Nothing is fetched until Mount.
func NewList[T any](src ListSource[T], opts ListOptions) *List[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultSearchDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &List[T]{
		src:       src,
		debouncer: clock.NewDebouncer(opts.Clock, opts.Debounce),
		logger:    opts.Logger,
		baseCtx:   context.Background(),
		state:     ListState[T]{Query: models.NewListQuery(opts.RowsPerPage)},
	}
}

// OnChange sets the callback run after every state change.
func (l *List[T]) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *List[T]) notify() {
	l.mu.Lock()
	fn := l.onChange
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Snapshot returns a copy of the current state.
func (l *List[T]) Snapshot() ListState[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	s.Rows = append([]T(nil), l.state.Rows...)
	s.Query.ColumnOrder = append([]models.Direction(nil), l.state.Query.ColumnOrder...)
	return s
}

// Mount performs the initial load without debounce. ctx also bounds the
// reloads later triggered by the search debounce.
func (l *List[T]) Mount(ctx context.Context) {
	l.mu.Lock()
	l.baseCtx = ctx
	l.state.Mounted = true
	l.mu.Unlock()
	l.Reload(ctx)
}

// SetSearch stores the text, resets the page and arms the debounce.
func (l *List[T]) SetSearch(text string) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.state.Query.Search = text
	l.state.Query.Page = 0
	l.mu.Unlock()

	l.debouncer.Debounce(func() {
		l.mu.Lock()
		ctx, closed := l.baseCtx, l.closed
		l.mu.Unlock()
		if closed {
			return
		}
		l.Reload(ctx)
	})
	l.notify()
}

// SetPage moves to page n and reloads.
func (l *List[T]) SetPage(ctx context.Context, n int) {
	if n < 0 {
		n = 0
	}
	l.mu.Lock()
	l.state.Query.Page = n
	l.mu.Unlock()
	l.Reload(ctx)
}

// NextPage advances one page when more rows exist.
func (l *List[T]) NextPage(ctx context.Context) {
	s := l.Snapshot()
	if (s.Query.Page+1)*s.Query.RowsPerPage >= s.Total {
		return
	}
	l.SetPage(ctx, s.Query.Page+1)
}

// PrevPage goes back one page.
func (l *List[T]) PrevPage(ctx context.Context) {
	s := l.Snapshot()
	if s.Query.Page == 0 {
		return
	}
	l.SetPage(ctx, s.Query.Page-1)
}

// SetRowsPerPage changes the page size, resets to the first page before
// fetching, and reloads.
func (l *List[T]) SetRowsPerPage(ctx context.Context, n int) {
	if n <= 0 {
		n = models.DefaultRowsPerPage
	}
	l.mu.Lock()
	l.state.Query.RowsPerPage = n
	l.state.Query.Page = 0
	l.mu.Unlock()
	l.Reload(ctx)
}

// SetColumnOrder replaces the per-column sort directions and reloads.
func (l *List[T]) SetColumnOrder(ctx context.Context, order []models.Direction) {
	l.mu.Lock()
	l.state.Query.ColumnOrder = append([]models.Direction{}, order...)
	l.mu.Unlock()
	l.Reload(ctx)
}

// ToggleColumn flips the direction of column idx (ascending first) and reloads.
func (l *List[T]) ToggleColumn(ctx context.Context, idx int) {
	if idx < 0 {
		return
	}
	l.mu.Lock()
	order := append([]models.Direction{}, l.state.Query.ColumnOrder...)
	for len(order) <= idx {
		order = append(order, "")
	}
	if order[idx] == "" {
		order[idx] = models.Asc
	} else {
		order[idx] = order[idx].Flip()
	}
	for i := range order {
		if order[i] == "" {
			order[i] = models.Asc
		}
	}
	l.mu.Unlock()
	l.SetColumnOrder(ctx, order)
}

// Reload fetches the current page and then the total. Failures are logged
// and the previous state kept. A reload whose results arrive after a newer
// reload started is discarded.
func (l *List[T]) Reload(ctx context.Context) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.seq++
	seq := l.seq
	q := l.state.Query
	q.ColumnOrder = append([]models.Direction{}, l.state.Query.ColumnOrder...)
	l.inflight++
	l.state.Loading = true
	l.mu.Unlock()
	l.notify()

	defer func() {
		l.mu.Lock()
		l.inflight--
		l.state.Loading = l.inflight > 0
		l.mu.Unlock()
		l.notify()
	}()

	rows, err := l.src.List(ctx, q)
	if err != nil {
		l.logger.Warn("list fetch failed", zap.String("search", q.Search), zap.Int("page", q.Page), zap.Error(err))
		return
	}
	if len(rows) > q.RowsPerPage {
		rows = rows[:q.RowsPerPage]
	}

	if !l.apply(seq, func() { l.state.Rows = rows }) {
		return
	}
	l.notify()

	total, err := l.src.Count(ctx, q.Search)
	if err != nil {
		l.logger.Warn("count fetch failed", zap.String("search", q.Search), zap.Error(err))
		return
	}
	l.apply(seq, func() { l.state.Total = total })
}

func (l *List[T]) apply(seq uint64, fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq || l.closed {
		l.logger.Debug("discarding stale list result", zap.Uint64("seq", seq), zap.Uint64("latest", l.seq))
		return false
	}
	fn()
	return true
}

// Delete removes a record and, on success, reloads exactly once. On
// failure the list is left unchanged and the error returned.
func (l *List[T]) Delete(ctx context.Context, id string) error {
	if err := l.src.Delete(ctx, id); err != nil {
		l.logger.Warn("delete failed", zap.String("id", id), zap.Error(err))
		return err
	}
	l.Reload(ctx)
	return nil
}

// Close cancels any pending debounced reload and ignores later results.
func (l *List[T]) Close() {
	l.debouncer.Cancel()
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}
