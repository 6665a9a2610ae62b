package cart

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/storage"
)

type spyStore struct {
	loaded models.Cart
	saves  []models.Cart
}

func (s *spyStore) Load(ctx context.Context) models.Cart { return s.loaded.Clone() }
func (s *spyStore) Save(ctx context.Context, cart models.Cart) {
	s.saves = append(s.saves, cart.Clone())
}

func product(id string, price int64) models.Product {
	return models.Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(price)}
}

func newPersistentEngine(t *testing.T) (*Engine, *storage.CartStore) {
	t.Helper()
	store := storage.NewCartStore(storage.NewMemoryBackend(), nil)
	return NewEngine(context.Background(), store, nil), store
}

func TestEngine_AddMergesRepeatedProduct(t *testing.T) {
	ctx := context.Background()
	engine, _ := newPersistentEngine(t)

	engine.Add(ctx, product("p1", 100), 2)
	engine.Add(ctx, product("p1", 100), 3)

	lines := engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.True(t, engine.TotalPrice().Equal(decimal.NewFromInt(500)))
}

func TestEngine_AddPreservesFirstAddedOrder(t *testing.T) {
	ctx := context.Background()
	engine, _ := newPersistentEngine(t)

	engine.Add(ctx, product("b", 1), 1)
	engine.Add(ctx, product("a", 1), 1)
	engine.Add(ctx, product("b", 1), 4)
	engine.Add(ctx, product("c", 1), 1)

	var ids []string
	for _, line := range engine.Lines() {
		ids = append(ids, line.ProductID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestEngine_OneLinePerProductWithSummedQuantity(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		t.Run(fmt.Sprintf("round %d", round), func(t *testing.T) {
			engine, _ := newPersistentEngine(t)
			expected := map[string]int{}

			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("p%d", rng.Intn(6))
				qty := rng.Intn(5) + 1
				engine.Add(ctx, product(id, 10), qty)
				expected[id] += qty
			}

			lines := engine.Lines()
			assert.Len(t, lines, len(expected))
			seen := map[string]bool{}
			for _, line := range lines {
				assert.False(t, seen[line.ProductID], "duplicate line for %s", line.ProductID)
				seen[line.ProductID] = true
				assert.Equal(t, expected[line.ProductID], line.Quantity)
			}
		})
	}
}

func TestEngine_RemoveThenAddStartsFresh(t *testing.T) {
	ctx := context.Background()
	engine, _ := newPersistentEngine(t)

	engine.Add(ctx, product("p1", 20), 7)
	engine.Add(ctx, product("p2", 5), 1)
	engine.Remove(ctx, "p1")
	engine.Add(ctx, product("p1", 20), 2)

	lines := engine.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p2", lines[0].ProductID)
	assert.Equal(t, "p1", lines[1].ProductID)
	assert.Equal(t, 2, lines[1].Quantity)
}

func TestEngine_RemoveMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	store := &spyStore{}
	engine := NewEngine(ctx, store, nil)

	engine.Add(ctx, product("p1", 1), 1)
	engine.Remove(ctx, "nope")
	engine.SetQuantity(ctx, "nope", 9)

	assert.Len(t, store.saves, 1, "no-op operations do not write")
	assert.Equal(t, 1, engine.Len())
}

func TestEngine_SetQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		total    int64
	}{
		{name: "increase", quantity: 10, total: 30},
		{name: "decrease", quantity: 1, total: 3},
		{name: "zero is kept", quantity: 0, total: 0},
		{name: "negative is kept", quantity: -2, total: -6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			engine, _ := newPersistentEngine(t)
			engine.Add(ctx, product("p1", 3), 4)

			engine.SetQuantity(ctx, "p1", tt.quantity)

			lines := engine.Lines()
			require.Len(t, lines, 1)
			assert.Equal(t, tt.quantity, lines[0].Quantity)
			assert.True(t, engine.TotalPrice().Equal(decimal.NewFromInt(tt.total)))
		})
	}
}

func TestEngine_AddAcceptsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	engine, _ := newPersistentEngine(t)

	engine.Add(ctx, product("p1", 10), 0)
	engine.Add(ctx, product("p1", 10), -1)

	lines := engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, -1, lines[0].Quantity)
}

func TestEngine_EveryMutationIsReloadable(t *testing.T) {
	ctx := context.Background()
	engine, store := newPersistentEngine(t)

	steps := []struct {
		name string
		op   func()
	}{
		{"add p1", func() { engine.Add(ctx, product("p1", 12), 1) }},
		{"add p2", func() { engine.Add(ctx, product("p2", 3), 5) }},
		{"add p1 again", func() { engine.Add(ctx, product("p1", 12), 2) }},
		{"set p2", func() { engine.SetQuantity(ctx, "p2", 9) }},
		{"remove p1", func() { engine.Remove(ctx, "p1") }},
		{"clear", func() { engine.Clear(ctx) }},
		{"add p3", func() { engine.Add(ctx, product("p3", 7), 1) }},
	}

	for _, step := range steps {
		step.op()
		reloaded := store.Load(ctx)
		assert.Equal(t, len(engine.Lines()), len(reloaded.Lines), step.name)
		for i, line := range engine.Lines() {
			assert.Equal(t, line.ProductID, reloaded.Lines[i].ProductID, step.name)
			assert.Equal(t, line.Quantity, reloaded.Lines[i].Quantity, step.name)
			assert.True(t, line.UnitPrice.Equal(reloaded.Lines[i].UnitPrice), step.name)
		}
	}
}

func TestEngine_AddIgnoresProductWithoutID(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	engine := NewEngine(ctx, storage.NewCartStore(backend, nil), nil)

	engine.Add(ctx, product("p1", 10), 1)
	engine.Add(ctx, product("p2", 20), 1)
	engine.Add(ctx, models.Product{Name: "No id", Price: decimal.NewFromInt(5)}, 1)

	assert.Len(t, engine.Lines(), 2)

	reloaded := NewEngine(ctx, storage.NewCartStore(backend, nil), nil)
	lines := reloaded.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, "p2", lines[1].ProductID)
}

func TestEngine_LoadsSnapshotOnce(t *testing.T) {
	ctx := context.Background()
	store := &spyStore{loaded: models.Cart{Lines: []models.CartLine{
		{ProductID: "saved", UnitPrice: decimal.NewFromInt(4), Quantity: 2},
	}}}

	engine := NewEngine(ctx, store, nil)
	assert.True(t, engine.TotalPrice().Equal(decimal.NewFromInt(8)))
	assert.Equal(t, 2, engine.Count())
	assert.Empty(t, store.saves, "reads never write")

	engine.Add(ctx, product("saved", 4), 1)
	require.Len(t, store.saves, 1)
	assert.Equal(t, 3, store.saves[0].Lines[0].Quantity)
}

func TestEngine_CarriesProductAttributes(t *testing.T) {
	ctx := context.Background()
	engine, store := newPersistentEngine(t)

	p := product("tyre", 80)
	p.Raw = []byte(`{"id":"tyre","size":"205/55 R16"}`)
	engine.Add(ctx, p, 4)

	reloaded := store.Load(ctx)
	require.Len(t, reloaded.Lines, 1)
	assert.JSONEq(t, `{"id":"tyre","size":"205/55 R16"}`, string(reloaded.Lines[0].Attributes))
}

func TestEngine_Subscribe(t *testing.T) {
	ctx := context.Background()
	engine, _ := newPersistentEngine(t)

	var totals []string
	unsubscribe := engine.Subscribe(func(c models.Cart) {
		totals = append(totals, c.Total().String())
	})

	engine.Add(ctx, product("p1", 5), 1)
	engine.Add(ctx, product("p1", 5), 1)
	engine.Remove(ctx, "missing")
	unsubscribe()
	engine.Clear(ctx)

	assert.Equal(t, []string{"5", "10"}, totals)
}

func TestEngine_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	engine, _ := newPersistentEngine(t)
	engine.Add(ctx, product("p1", 5), 1)

	lines := engine.Lines()
	lines[0].Quantity = 100

	assert.Equal(t, 1, engine.Lines()[0].Quantity)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{input: "3", expected: 3},
		{input: " 12 ", expected: 12},
		{input: "0", expected: 0},
		{input: "-4", expected: -4},
		{input: "", wantErr: true},
		{input: "two", wantErr: true},
		{input: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := ParseQuantity(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidQuantity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}
