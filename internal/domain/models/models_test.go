package models

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchDayAge(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	batch := Batch{EntryDate: time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)}
	on := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, batch.DayAge(on, time.UTC))
	assert.Equal(t, 0, batch.DayAge(on, paris), "entry falls on March 2nd in Paris")
	assert.Equal(t, 0, batch.DayAge(batch.EntryDate, nil))
	assert.Equal(t, 30, batch.DayAge(batch.EntryDate.AddDate(0, 0, 30), time.UTC))
	assert.Equal(t, -1, batch.DayAge(batch.EntryDate.AddDate(0, 0, -1), time.UTC))
}

func TestBatchDayAgeAcrossDST(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	batch := Batch{EntryDate: time.Date(2026, 3, 28, 12, 0, 0, 0, paris)}
	on := time.Date(2026, 3, 30, 0, 30, 0, 0, paris)

	assert.Equal(t, 2, batch.DayAge(on, paris))
}

func TestBatchCanTransition(t *testing.T) {
	cases := []struct {
		from BatchStatus
		to   BatchStatus
		want bool
	}{
		{BatchActive, BatchExited, true},
		{BatchActive, BatchArchived, true},
		{BatchExited, BatchArchived, true},
		{BatchExited, BatchActive, false},
		{BatchArchived, BatchActive, false},
		{BatchArchived, BatchExited, false},
		{BatchActive, BatchActive, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, Batch{Status: tc.from}.CanTransition(tc.to))
		})
	}
}

func TestDayBounds(t *testing.T) {
	at := time.Date(2026, 5, 10, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), StartOfDay(at, time.UTC))
	assert.Equal(t, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), EndOfDay(at, time.UTC))
}

func TestTaskInstanceIDIsDeterministic(t *testing.T) {
	a := TaskInstanceID("batch-1", 7, "vax-1")
	assert.Equal(t, a, TaskInstanceID("batch-1", 7, "vax-1"))
	assert.NotEqual(t, a, TaskInstanceID("batch-1", 8, "vax-1"))
	assert.NotEqual(t, a, TaskInstanceID("batch-2", 7, "vax-1"))
	assert.NotEqual(t, a, TaskInstanceID("batch-1", 7, "vax-2"))
}

func TestTemplateTasksFor(t *testing.T) {
	tpl := Template{Tasks: []TaskTemplate{
		{ID: "a", DayAgeOffset: 0},
		{ID: "b", DayAgeOffset: 7},
		{ID: "c", DayAgeOffset: 7},
	}}

	due := tpl.TasksFor(7)
	require.Len(t, due, 2)
	assert.Equal(t, "b", due[0].ID)
	assert.Equal(t, "c", due[1].ID)
	assert.Empty(t, tpl.TasksFor(3))
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want CommandType
		args []string
	}{
		{"/tasks B-042", CommandTasks, []string{"B-042"}},
		{"TACHES b-042", CommandTasks, []string{"b-042"}},
		{"/done 3F2A", CommandDone, []string{"3F2A"}},
		{"fait abc", CommandDone, []string{"abc"}},
		{"aide", CommandHelp, nil},
		{"bonjour", CommandUnknown, nil},
		{"   ", CommandUnknown, nil},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			cmd := ParseCommand(tc.in)
			assert.Equal(t, tc.want, cmd.Type)
			assert.Equal(t, tc.args, cmd.Args)
		})
	}
}

func TestSyncsToFinance(t *testing.T) {
	assert.True(t, CostRecord{Kind: CostPrevention, Category: "Vaccine"}.SyncsToFinance())
	assert.True(t, CostRecord{Kind: CostPrevention, Category: "disinfection"}.SyncsToFinance())
	assert.False(t, CostRecord{Kind: CostPrevention, Category: "inspection"}.SyncsToFinance())
	assert.False(t, CostRecord{Kind: CostTreatment, Category: "vaccine"}.SyncsToFinance())
	assert.True(t, CostRecord{Kind: CostMaterial, SyncFinance: true}.SyncsToFinance())
	assert.False(t, CostRecord{Kind: CostMaterial, SyncFinance: true, IsDeleted: true}.SyncsToFinance())
}

func TestFinanceCostType(t *testing.T) {
	cases := []struct {
		name string
		rec  CostRecord
		want string
	}{
		{"health category", CostRecord{Kind: CostMaterial, Category: "medicine"}, CostTypeHealth},
		{"feed category", CostRecord{Kind: CostTreatment, Category: "feed"}, CostTypeFeed},
		{"treatment kind", CostRecord{Kind: CostTreatment}, CostTypeHealth},
		{"material kind", CostRecord{Kind: CostMaterial, Category: "litter"}, CostTypeFeed},
		{"entry kind", CostRecord{Kind: CostEntry}, CostTypePurchase},
		{"unknown", CostRecord{Kind: "labour"}, CostTypeOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FinanceCostType(tc.rec))
		})
	}
}

func TestCostRecordTotalAmount(t *testing.T) {
	rec := CostRecord{Kind: CostTreatment, Amount: 30}
	assert.Equal(t, 30.0, rec.TotalAmount())

	rec.Diagnosis = &DiagnosisCost{DiagnosisID: "d1", MedicationCost: 10}
	assert.Equal(t, 40.0, rec.TotalAmount())
}

func TestCostBreakdownUnitCost(t *testing.T) {
	b := CostBreakdown{EntryUnitCost: 2, BreedingCost: 0.5, PreventionCost: 0.2, TreatmentCost: 0.4}
	assert.Equal(t, 3.10, b.UnitCost())
}

func TestLedgerEntryBackfilled(t *testing.T) {
	_, changed := FinanceLedgerEntry{CostType: CostTypeFeed, Amount: 5}.Backfilled(CostTypeFeed, 5)
	assert.False(t, changed)

	filled, changed := FinanceLedgerEntry{Amount: 5}.Backfilled(CostTypeHealth, 9)
	assert.True(t, changed)
	assert.Equal(t, CostTypeHealth, filled.CostType)
	assert.Equal(t, 5.0, filled.Amount)

	filled, changed = FinanceLedgerEntry{CostType: CostTypeFeed}.Backfilled(CostTypeHealth, 7)
	assert.True(t, changed)
	assert.Equal(t, CostTypeFeed, filled.CostType)
	assert.Equal(t, 7.0, filled.Amount)

	_, changed = FinanceLedgerEntry{CostType: CostTypeHealth}.Backfilled(CostTypeHealth, 0)
	assert.False(t, changed, "a genuine zero amount is not missing")
}
