package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSampler_NilSampler(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(1, 10) {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset()
}

func TestProgressSampler_Buckets(t *testing.T) {
	s := NewProgressSampler(5)
	steps := []struct {
		done int
		want bool
	}{
		{0, true},
		{1, false},
		{4, false},
		{5, true},
		{6, false},
		{20, true},
		{99, true},
		{100, true},
		{100, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.done, 100); got != step.want {
			t.Fatalf("ShouldLog(%d, 100) = %v, want %v", step.done, got, step.want)
		}
	}
}

func TestProgressSampler_Reset(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(10, 10)
	if s.ShouldLog(10, 10) {
		t.Fatal("completion should log once")
	}
	s.Reset()
	if !s.ShouldLog(0, 10) {
		t.Fatal("reset sampler should log again")
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(25, 100); got != 25 {
		t.Fatalf("Percent = %v, want 25", got)
	}
	if got := Percent(0, 0); got != 100 {
		t.Fatalf("empty total = %v, want 100", got)
	}
}
