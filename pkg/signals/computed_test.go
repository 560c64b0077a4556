package signals

import (
	"fmt"
	"strings"
	"testing"
)

func TestComputedDoubles(t *testing.T) {
	a := NewSignal(1)
	b := NewComputed1(func(x int) int { return x * 2 }, a)

	if b.Get() != 2 {
		t.Errorf("expected initial value 2, got %d", b.Get())
	}

	a.Set(5)
	if b.Get() != 10 {
		t.Errorf("expected 10, got %d", b.Get())
	}
}

func TestComputedTwoDependencies(t *testing.T) {
	a := NewSignal(2)
	b := NewSignal("x")
	f := func(n int, s string) string { return strings.Repeat(s, n) }
	c := NewComputed2(f, a, b)

	if c.Get() != f(a.Get(), b.Get()) {
		t.Errorf("expected %q, got %q", f(a.Get(), b.Get()), c.Get())
	}

	a.Set(3)
	if c.Get() != "xxx" {
		t.Errorf("expected xxx, got %q", c.Get())
	}

	b.Set("ab")
	if c.Get() != "ababab" {
		t.Errorf("expected ababab, got %q", c.Get())
	}
}

func TestComputedThreeDependencies(t *testing.T) {
	a, b, c := NewSignal(1), NewSignal(2.5), NewSignal(true)
	sum := NewComputed3(func(x int, y float64, neg bool) float64 {
		if neg {
			return -(float64(x) + y)
		}
		return float64(x) + y
	}, a, b, c)

	if sum.Get() != -3.5 {
		t.Errorf("expected -3.5, got %v", sum.Get())
	}
	c.Set(false)
	if sum.Get() != 3.5 {
		t.Errorf("expected 3.5, got %v", sum.Get())
	}
}

func TestComputedN(t *testing.T) {
	deps := []Readable[int]{NewSignal(1), NewSignal(2), NewSignal(3)}
	total := NewComputedN(func(vs []int) int {
		n := 0
		for _, v := range vs {
			n += v
		}
		return n
	}, deps)

	if total.Get() != 6 {
		t.Errorf("expected 6, got %d", total.Get())
	}

	deps[1].(*Signal[int]).Set(20)
	if total.Get() != 24 {
		t.Errorf("expected 24, got %d", total.Get())
	}
}

func TestComputedGeneralForm(t *testing.T) {
	price := NewSignal(3)
	qty := NewSignal(4)
	calls := 0
	total := NewComputed(func() int {
		calls++
		return price.Get() * qty.Get()
	}, []Dependency{price, qty})

	if total.Get() != 12 || calls != 1 {
		t.Fatalf("expected 12 after 1 call, got %d after %d", total.Get(), calls)
	}

	qty.Set(5)
	if total.Get() != 15 || calls != 2 {
		t.Errorf("expected 15 after 2 calls, got %d after %d", total.Get(), calls)
	}

	qty.Set(5)
	if calls != 2 {
		t.Errorf("equal write should not recompute, got %d calls", calls)
	}
}

func TestComputedOnlyNotifiesOnDistinctValue(t *testing.T) {
	n := NewSignal(2)
	even := NewComputed1(func(x int) bool { return x%2 == 0 }, n)
	c := &counter{}
	even.Subscribe(c.inc)

	n.Set(4)
	if c.n != 0 {
		t.Errorf("unchanged derived value should not notify, got %d", c.n)
	}

	n.Set(5)
	if c.n != 1 {
		t.Errorf("expected 1 notification, got %d", c.n)
	}
}

func TestComputedChain(t *testing.T) {
	a := NewSignal(1)
	b := NewComputed1(func(x int) int { return x + 1 }, a)
	c := NewComputed1(func(x int) int { return x * 10 }, b)

	var seen []int
	c.Effect(func() { seen = append(seen, c.Get()) })

	a.Set(2)
	a.Set(3)

	if fmt.Sprint(seen) != "[20 30 40]" {
		t.Errorf("expected [20 30 40], got %v", seen)
	}
}

func TestComputedSeesAllCurrentValues(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(1)
	sum := NewComputed2(func(x, y int) int { return x + y }, a, b)

	// b changes while a's listeners run; the recomputation triggered by b must
	// read a's new value.
	a.Subscribe(func() { b.Set(a.Get() * 100) })

	a.Set(2)
	if sum.Get() != 202 {
		t.Errorf("expected 202, got %d", sum.Get())
	}
}

func TestComputedDispose(t *testing.T) {
	a := NewSignal(1)
	b := NewComputed1(func(x int) int { return x * 2 }, a)

	if a.Len() != 1 {
		t.Fatalf("expected computed to subscribe once, got %d", a.Len())
	}

	b.Dispose()
	b.Dispose()

	if !b.Disposed() {
		t.Error("expected Disposed to be true")
	}
	if a.Len() != 0 {
		t.Errorf("expected no listeners after Dispose, got %d", a.Len())
	}

	a.Set(10)
	if b.Get() != 2 {
		t.Errorf("disposed computed should keep its last value, got %d", b.Get())
	}
}

func TestComputedDisposeDuringPass(t *testing.T) {
	a := NewSignal(1)
	var b *Computed[int]
	a.Subscribe(func() { b.Dispose() })
	b = NewComputed1(func(x int) int { return x * 2 }, a)

	a.Set(2)
	if b.Get() != 2 {
		t.Errorf("computed disposed earlier in the pass should not update, got %d", b.Get())
	}
}

func TestComputedDerivePanicPropagates(t *testing.T) {
	a := NewSignal(1)
	NewComputed1(func(x int) int {
		if x < 0 {
			panic("negative")
		}
		return x
	}, a)

	defer func() {
		if r := recover(); r != "negative" {
			t.Errorf("expected panic negative, got %v", r)
		}
	}()
	a.Set(-1)
}

func TestComputedConstructionPanicLeavesNoSubscription(t *testing.T) {
	a := NewSignal(1)

	func() {
		defer func() { _ = recover() }()
		NewComputed1(func(int) int { panic("init") }, a)
	}()

	if a.Len() != 0 {
		t.Errorf("expected no listener after failed construction, got %d", a.Len())
	}
}

func TestComputedCoercion(t *testing.T) {
	a := NewSignal(3)
	label := NewComputed1(func(x int) string { return fmt.Sprintf("n=%d", x) }, a, WithName("label"))

	if label.String() != "n=3" {
		t.Errorf("expected n=3, got %q", label.String())
	}
	if label.Name() != "label" {
		t.Errorf("expected name label, got %q", label.Name())
	}
	data, err := label.MarshalJSON()
	if err != nil || string(data) != `"n=3"` {
		t.Errorf("expected \"n=3\", got %s (%v)", data, err)
	}
}

func TestComputedWithEquals(t *testing.T) {
	a := NewSignal(1.0)
	rounded := NewComputed1(func(x float64) float64 { return x }, a).
		WithEquals(func(x, y float64) bool { return int(x) == int(y) })
	c := &counter{}
	rounded.Subscribe(c.inc)

	a.Set(1.5)
	if c.n != 0 || rounded.Get() != 1.0 {
		t.Errorf("expected no change, got %d notifications, value %v", c.n, rounded.Get())
	}
}

func TestComputedHasNoSetter(t *testing.T) {
	type setter interface{ Set(int) }
	var c any = NewComputed1(func(x int) int { return x }, NewSignal(1))
	if _, ok := c.(setter); ok {
		t.Error("Computed must not expose Set")
	}
}
