package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNewErrorRateTracker(t *testing.T) {
	t.Run("with default config", func(t *testing.T) {
		config := DefaultErrorRateConfig()
		tracker := NewErrorRateTracker(config)

		if tracker == nil {
			t.Fatal("expected non-nil tracker")
		}
		if tracker.config.WindowDuration != time.Minute {
			t.Errorf("expected 1 minute window, got %v", tracker.config.WindowDuration)
		}
		if tracker.config.BucketCount != 60 {
			t.Errorf("expected 60 buckets, got %d", tracker.config.BucketCount)
		}
	})

	t.Run("with zero values uses defaults", func(t *testing.T) {
		tracker := NewErrorRateTracker(ErrorRateConfig{})

		if tracker.config.WindowDuration != time.Minute {
			t.Errorf("expected default 1 minute window, got %v", tracker.config.WindowDuration)
		}
		if tracker.config.BucketCount != 60 {
			t.Errorf("expected default 60 buckets, got %d", tracker.config.BucketCount)
		}
	})
}

func TestErrorRateTracker_RecordError(t *testing.T) {
	tracker := NewErrorRateTracker(ErrorRateConfig{
		WindowDuration: time.Second,
		BucketCount:    10,
	})

	tracker.RecordError(ErrorCategoryDatabase)
	tracker.RecordError(ErrorCategoryDatabase)
	tracker.RecordError(ErrorCategoryModel)

	if count := tracker.Count(ErrorCategoryDatabase); count != 2 {
		t.Errorf("expected 2 database errors, got %d", count)
	}
	if count := tracker.Count(ErrorCategoryModel); count != 1 {
		t.Errorf("expected 1 model error, got %d", count)
	}
	if count := tracker.Count(ErrorCategoryValidation); count != 0 {
		t.Errorf("expected 0 validation errors, got %d", count)
	}
}

func TestErrorRateTracker_Rate(t *testing.T) {
	tracker := NewErrorRateTracker(ErrorRateConfig{
		WindowDuration: time.Second,
		BucketCount:    10,
	})

	for i := 0; i < 5; i++ {
		tracker.RecordError(ErrorCategoryModel)
	}

	rate := tracker.Rate(ErrorCategoryModel)
	if rate != 5.0 {
		t.Errorf("expected rate of 5.0, got %f", rate)
	}

	// Non-existent category should return 0
	rate = tracker.Rate(ErrorCategoryInternal)
	if rate != 0 {
		t.Errorf("expected rate of 0 for non-existent category, got %f", rate)
	}
}

func TestErrorRateTracker_TotalRate(t *testing.T) {
	tracker := NewErrorRateTracker(ErrorRateConfig{
		WindowDuration: time.Second,
		BucketCount:    10,
	})

	tracker.RecordError(ErrorCategoryDatabase)
	tracker.RecordError(ErrorCategoryDatabase)
	tracker.RecordError(ErrorCategoryModel)
	tracker.RecordError(ErrorCategoryValidation)
	tracker.RecordError(ErrorCategoryChat)

	rate := tracker.TotalRate()
	if rate != 5.0 {
		t.Errorf("expected total rate of 5.0, got %f", rate)
	}
}

func TestErrorRateTracker_ErrorPercentage(t *testing.T) {
	tracker := NewErrorRateTracker(ErrorRateConfig{
		WindowDuration: time.Second,
		BucketCount:    10,
	})

	// No requests yet
	if pct := tracker.ErrorPercentage(); pct != 0 {
		t.Errorf("expected 0%% with no requests, got %f%%", pct)
	}

	for i := 0; i < 100; i++ {
		tracker.RecordRequest()
	}
	for i := 0; i < 5; i++ {
		tracker.RecordError(ErrorCategoryChat)
	}

	if pct := tracker.ErrorPercentage(); pct != 5.0 {
		t.Errorf("expected 5%%, got %f%%", pct)
	}
}

func TestErrorRateTracker_AlertCallback(t *testing.T) {
	var (
		mu            sync.Mutex
		alertCategory ErrorCategory
		alertCount    int
	)

	tracker := NewErrorRateTracker(ErrorRateConfig{
		WindowDuration: time.Second,
		BucketCount:    10,
		AlertThreshold: 2.0,
		AlertCallback: func(category ErrorCategory, rate float64) {
			mu.Lock()
			alertCategory = category
			alertCount++
			mu.Unlock()
		},
	})

	// First two errors stay at or under the threshold
	tracker.RecordError(ErrorCategoryModel)
	tracker.RecordError(ErrorCategoryModel)

	mu.Lock()
	count := alertCount
	mu.Unlock()
	if count != 0 {
		t.Errorf("expected no alerts at threshold, got %d", count)
	}

	// Third error crosses it
	tracker.RecordError(ErrorCategoryModel)

	mu.Lock()
	defer mu.Unlock()
	if alertCount != 1 {
		t.Errorf("expected 1 alert, got %d", alertCount)
	}
	if alertCategory != ErrorCategoryModel {
		t.Errorf("expected model category in alert, got %s", alertCategory)
	}
}

func TestErrorRateTracker_Snapshot(t *testing.T) {
	tracker := NewErrorRateTracker(ErrorRateConfig{
		WindowDuration: time.Second,
		BucketCount:    10,
	})

	tracker.RecordError(ErrorCategoryDatabase)
	tracker.RecordError(ErrorCategoryDatabase)
	tracker.RecordError(ErrorCategoryAuth)

	snapshot := tracker.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected 2 categories in snapshot, got %d", len(snapshot))
	}
	if snapshot[ErrorCategoryDatabase].Count != 2 {
		t.Errorf("expected 2 database errors in snapshot, got %d", snapshot[ErrorCategoryDatabase].Count)
	}
	if snapshot[ErrorCategoryAuth].Count != 1 {
		t.Errorf("expected 1 auth error in snapshot, got %d", snapshot[ErrorCategoryAuth].Count)
	}
}

func TestErrorRateTracker_Reset(t *testing.T) {
	tracker := NewErrorRateTracker(ErrorRateConfig{
		WindowDuration: time.Second,
		BucketCount:    10,
	})

	tracker.RecordRequest()
	tracker.RecordError(ErrorCategoryRateLimit)
	tracker.Reset()

	if count := tracker.Count(ErrorCategoryRateLimit); count != 0 {
		t.Errorf("expected 0 errors after reset, got %d", count)
	}
	if pct := tracker.ErrorPercentage(); pct != 0 {
		t.Errorf("expected 0%% after reset, got %f%%", pct)
	}
}

func TestErrorRateTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewErrorRateTracker(ErrorRateConfig{
		WindowDuration: time.Second,
		BucketCount:    10,
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tracker.RecordRequest()
				tracker.RecordError(ErrorCategoryModel)
			}
		}()
	}
	wg.Wait()

	if count := tracker.Count(ErrorCategoryModel); count != 1000 {
		t.Errorf("expected 1000 errors, got %d", count)
	}
}
