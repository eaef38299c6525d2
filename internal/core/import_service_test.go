package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"attendance.service/internal/core/biometric"
	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `ID,First Name,Department,15,16,17
E100,Ana,Assembly,,09:00-18:30,9-13
E200,Ben,Packing,8:30-17,garbage,
`

func TestImportService_Preview(t *testing.T) {
	svc := NewImportService(&fakePublisher{}, 0)

	preview, err := svc.Preview(context.Background(), strings.NewReader(sampleExport), "june.csv", biometric.Options{
		Month: time.June, Year: 2025,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, preview.BatchID)
	assert.Equal(t, 2025, preview.Year)
	assert.Equal(t, time.June, preview.Month)
	require.Len(t, preview.Records, 3)
	require.Len(t, preview.Skipped, 1)
	assert.Equal(t, "garbage", preview.Skipped[0].Value)

	first := preview.Records[0]
	assert.Equal(t, "E100", first.EmployeeID)
	assert.Equal(t, time.Date(2025, time.June, 16, 9, 0, 0, 0, time.UTC), *first.PunchIn)
	assert.Equal(t, time.Date(2025, time.June, 16, 18, 30, 0, 0, time.UTC), *first.PunchOut)
	require.NotNil(t, first.SiteID)
	assert.Equal(t, "Assembly", *first.SiteID)
}

func TestImportService_PreviewErrors(t *testing.T) {
	svc := NewImportService(&fakePublisher{}, 0)

	_, err := svc.Preview(context.Background(), strings.NewReader(sampleExport), "june.pdf", biometric.Options{Month: time.June, Year: 2025})
	assert.ErrorIs(t, err, biometric.ErrUnsupportedFormat)

	_, err = svc.Preview(context.Background(), strings.NewReader("\n\n"), "june.csv", biometric.Options{Month: time.June, Year: 2025})
	assert.ErrorIs(t, err, biometric.ErrMissingImportHeader)
}

func TestImportService_ConfirmChunksRecords(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewImportService(pub, 2)

	var records []model.PunchRecord
	for d := 2; d <= 6; d++ {
		records = append(records, punch("e1", day(2025, time.June, d), 9, 0, 18, 0))
	}

	receipt, err := svc.Confirm(context.Background(), "batch-1", records)
	require.NoError(t, err)
	assert.Equal(t, ImportReceipt{BatchID: "batch-1", Records: 5, Chunks: 3}, receipt)

	require.Len(t, pub.imports, 3)
	sizes := []int{}
	for i, event := range pub.imports {
		assert.Equal(t, "batch-1", event.BatchID)
		assert.Equal(t, i+1, event.Chunk)
		assert.Equal(t, 3, event.ChunkCount)
		sizes = append(sizes, len(event.Records))
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestImportService_ConfirmValidation(t *testing.T) {
	svc := NewImportService(&fakePublisher{}, 10)

	_, err := svc.Confirm(context.Background(), "b", nil)
	assert.ErrorIs(t, err, ErrNothingToImport)

	_, err = svc.Confirm(context.Background(), "b", []model.PunchRecord{{Date: monday}})
	assert.ErrorIs(t, err, ErrInvalidEmployeeID)

	receipt, err := svc.Confirm(context.Background(), "", []model.PunchRecord{punch("e1", monday, 9, 0, 10, 0)})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.BatchID)

	boom := errors.New("queue full")
	svc = NewImportService(&fakePublisher{err: boom}, 10)
	_, err = svc.Confirm(context.Background(), "b", []model.PunchRecord{punch("e1", monday, 9, 0, 10, 0)})
	assert.ErrorIs(t, err, boom)
}

func TestImportService_PreviewReportsSheetRows(t *testing.T) {
	svc := NewImportService(&fakePublisher{}, 0)
	export := "\n\n" + sampleExport

	preview, err := svc.Preview(context.Background(), strings.NewReader(export), "june.csv", biometric.Options{
		Month: time.June, Year: 2025,
	})
	require.NoError(t, err)
	require.Len(t, preview.Skipped, 1)
	assert.Equal(t, "E200", preview.Skipped[0].EmployeeID)
	assert.Equal(t, 5, preview.Skipped[0].Row)
}
