package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("net_execute_start", slog.String("run_id", "r1"))
		logger.Error("net_execute_error", slog.Int("ticks", 3))

		require.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("execute_start"))
		assert.True(t, handler.ContainsAttr("run_id", "r1"))
		assert.True(t, handler.ContainsAttr("ticks", int64(3)))
	})

	t.Run("filters by level and message", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("a")
		logger.Info("b")
		logger.Info("b")
		logger.Error("c")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 2)
		assert.Len(t, handler.FindRecords("b"), 2)
		assert.Empty(t, handler.FindRecords("missing"))
	})

	t.Run("child loggers share the buffer", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("analysis_id", "nulls")).Info("analysis_start")

		records := handler.FindRecords("analysis_start")
		require.Len(t, records, 1)
		assert.Equal(t, "nulls", records[0].Attrs["analysis_id"])

		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})

	t.Run("concurrent logging", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("concurrent", slog.Int("n", n))
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
		AssertNoErrors(t, handler)
	})
}
