package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thread-analysis/pkg/model"
)

func fileResult(name string, records ...model.ThreadRecord) *model.FileResult {
	stateCounts := make(map[string]int)
	for _, rec := range records {
		stateCounts[rec.State] = stateCounts[rec.State] + 1
	}
	return &model.FileResult{
		Records: records,
		Stats: model.PerFileStats{
			FileName:     name,
			TotalThreads: len(records),
			StateCounts:  stateCounts,
		},
	}
}

var (
	stackA = model.Stack{
		"at sun.misc.Unsafe.park(Native Method)",
		"at com.example.Worker.take(Worker.java:77)",
	}
	stackB = model.Stack{
		"at com.example.Worker.process(Worker.java:114)",
	}
	stackC = model.Stack{
		"at com.example.Worker.flush(Worker.java:201)",
	}
)

func TestAggregator_SingleFileSingleThread(t *testing.T) {
	stack := model.Stack{
		"at sun.misc.Unsafe.park(Native Method)",
		"at java.util.concurrent.locks.LockSupport.park(LockSupport.java:175)",
		"at com.example.Worker.take(Worker.java:77)",
	}
	results := []*model.FileResult{
		fileResult("dump-01.txt", model.ThreadRecord{State: "WAITING (parking)", Stack: stack}),
	}

	report := NewAggregator().Aggregate(results)

	assert.Equal(t, 1, report.FilesAnalyzed)
	require.Len(t, report.RankedStacks, 1)
	assert.Equal(t, 1, report.RankedStacks[0].Count)
	assert.Len(t, report.RankedStacks[0].Stack, 3)
	assert.Equal(t, map[string]float64{"WAITING (parking)": 1.0}, report.StateAverages)
}

func TestAggregator_IdenticalStacksAcrossFiles(t *testing.T) {
	stack := model.Stack{
		"at com.example.Worker.take(Worker.java:77)",
		"at com.example.Worker.run(Worker.java:61)",
	}
	results := []*model.FileResult{
		fileResult("dump-01.txt", model.ThreadRecord{State: "RUNNABLE", Stack: stack}),
		fileResult("dump-02.txt", model.ThreadRecord{State: "WAITING", Stack: stack.Clone()}),
	}

	report := NewAggregator().Aggregate(results)

	require.Len(t, report.RankedStacks, 1)
	assert.Equal(t, 2, report.RankedStacks[0].Count)
	assert.Equal(t, map[string]int{"RUNNABLE": 1, "WAITING": 1}, report.StatesFor(stack))
	assert.Equal(t, map[string]float64{"RUNNABLE": 0.5, "WAITING": 0.5}, report.StateAverages)
}

func TestAggregator_TieBreakByFirstSeen(t *testing.T) {
	// stackA: 5 occurrences, stackB: 3, stackC: 5. Both count-5 stacks
	// rank before the count-3 stack, in first-encountered order.
	var records []model.ThreadRecord
	for i := 0; i < 5; i++ {
		records = append(records, model.ThreadRecord{State: "WAITING", Stack: stackA})
	}
	for i := 0; i < 3; i++ {
		records = append(records, model.ThreadRecord{State: "RUNNABLE", Stack: stackB})
	}
	for i := 0; i < 5; i++ {
		records = append(records, model.ThreadRecord{State: "BLOCKED", Stack: stackC})
	}
	results := []*model.FileResult{fileResult("dump-01.txt", records...)}

	report := NewAggregator().Aggregate(results)

	require.Len(t, report.RankedStacks, 3)
	assert.Equal(t, stackA, report.RankedStacks[0].Stack)
	assert.Equal(t, 5, report.RankedStacks[0].Count)
	assert.Equal(t, stackC, report.RankedStacks[1].Stack)
	assert.Equal(t, 5, report.RankedStacks[1].Count)
	assert.Equal(t, stackB, report.RankedStacks[2].Stack)
	assert.Equal(t, 3, report.RankedStacks[2].Count)
}

func TestAggregator_Deterministic(t *testing.T) {
	results := []*model.FileResult{
		fileResult("dump-01.txt",
			model.ThreadRecord{State: "WAITING", Stack: stackA},
			model.ThreadRecord{State: "RUNNABLE", Stack: stackB},
		),
		fileResult("dump-02.txt",
			model.ThreadRecord{State: "WAITING", Stack: stackA},
			model.ThreadRecord{State: "BLOCKED", Stack: stackC},
		),
	}

	agg := NewAggregator()
	first := agg.Aggregate(results)
	second := agg.Aggregate(results)

	assert.Equal(t, first.RankedStacks, second.RankedStacks)
	assert.Equal(t, first.StateAverages, second.StateAverages)
}

func TestAggregator_CountConservation(t *testing.T) {
	results := []*model.FileResult{
		fileResult("dump-01.txt",
			model.ThreadRecord{State: "WAITING", Stack: stackA},
			model.ThreadRecord{State: "WAITING", Stack: stackA},
			model.ThreadRecord{State: "RUNNABLE", Stack: stackB},
		),
		fileResult("dump-02.txt",
			model.ThreadRecord{State: "WAITING", Stack: stackA},
		),
		fileResult("dump-03.txt"),
	}

	report := NewAggregator().Aggregate(results)

	rankedTotal := 0
	for _, rs := range report.RankedStacks {
		rankedTotal += rs.Count
	}
	assert.Equal(t, report.TotalThreads(), rankedTotal)
}

func TestAggregator_AverageCorrectness(t *testing.T) {
	results := []*model.FileResult{
		fileResult("dump-01.txt",
			model.ThreadRecord{State: "WAITING", Stack: stackA},
			model.ThreadRecord{State: "WAITING", Stack: stackB},
			model.ThreadRecord{State: "RUNNABLE", Stack: stackC},
		),
		fileResult("dump-02.txt",
			model.ThreadRecord{State: "WAITING", Stack: stackA},
		),
		fileResult("dump-03.txt"),
	}

	report := NewAggregator().Aggregate(results)

	// WAITING: (2 + 1 + 0) / 3, RUNNABLE: (1 + 0 + 0) / 3.
	assert.InDelta(t, 1.0, report.StateAverages["WAITING"], 1e-9)
	assert.InDelta(t, 1.0/3.0, report.StateAverages["RUNNABLE"], 1e-9)
}

func TestAggregator_ZeroFiles(t *testing.T) {
	report := NewAggregator().Aggregate(nil)

	assert.Equal(t, 0, report.FilesAnalyzed)
	assert.Empty(t, report.RankedStacks)
	assert.Empty(t, report.StateAverages)
	assert.True(t, report.Empty())
	assert.Equal(t, 0, report.MaxCount())
}

func TestAggregator_FilesWithNoMatches(t *testing.T) {
	results := []*model.FileResult{
		fileResult("dump-01.txt"),
		fileResult("dump-02.txt"),
	}

	report := NewAggregator().Aggregate(results)

	assert.Equal(t, 2, report.FilesAnalyzed)
	require.Len(t, report.PerFileStats, 2)
	assert.Equal(t, 0, report.PerFileStats[0].TotalThreads)
	assert.True(t, report.Empty())
}

func TestAggregator_MaxStacks(t *testing.T) {
	results := []*model.FileResult{
		fileResult("dump-01.txt",
			model.ThreadRecord{State: "WAITING", Stack: stackA},
			model.ThreadRecord{State: "WAITING", Stack: stackA},
			model.ThreadRecord{State: "RUNNABLE", Stack: stackB},
			model.ThreadRecord{State: "BLOCKED", Stack: stackC},
		),
	}

	report := NewAggregator(WithMaxStacks(2)).Aggregate(results)

	require.Len(t, report.RankedStacks, 2)
	assert.Equal(t, stackA, report.RankedStacks[0].Stack)
	assert.Equal(t, 2, report.RankedStacks[0].Count)
}
