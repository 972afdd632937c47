package components

import "testing"

func TestObstacleAdvanceAndRetire(t *testing.T) {
	o := Obstacle{X: 10}
	const width = 104

	o.Advance(5)
	if o.X != 5 {
		t.Fatalf("x after advance = %d, want 5", o.X)
	}

	o.X = -104
	if o.Retired(width) {
		t.Error("obstacle with x+width == 0 should not be retired yet")
	}
	o.X = -105
	if !o.Retired(width) {
		t.Error("obstacle fully off-screen should be retired")
	}
}

func TestObstacleMarkPassedOnce(t *testing.T) {
	o := Obstacle{X: 230}

	if o.MarkPassed(230) {
		t.Fatal("avatar level with the obstacle has not passed it")
	}
	o.Advance(5)
	if !o.MarkPassed(230) {
		t.Fatal("expected first pass to report true")
	}
	for i := 0; i < 3; i++ {
		o.Advance(5)
		if o.MarkPassed(230) {
			t.Fatalf("pass re-triggered on tick %d", i)
		}
	}
	if !o.Passed {
		t.Error("passed flag should stay set")
	}
}
