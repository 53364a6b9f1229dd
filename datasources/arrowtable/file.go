package arrowtable

import (
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
)

// ReadFile loads an Arrow IPC file. All record batches of the file are concatenated into one table.
// A nil allocator uses the Go allocator.
func ReadFile(path string, mem memory.Allocator) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	reader, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read arrow file %s", path)
	}
	defer reader.Close()

	records := make([]arrow.Record, reader.NumRecords())
	for i := range records {
		records[i], err = reader.RecordAt(i)
		if err != nil {
			releaseAll(records[:i])
			return nil, errors.Wrapf(err, "couldn't read record batch %d", i)
		}
	}
	defer releaseAll(records)

	record, err := concatenate(reader.Schema(), records, mem)
	if err != nil {
		return nil, err
	}
	defer record.Release()
	return NewTable(record)
}

func concatenate(schema *arrow.Schema, records []arrow.Record, mem memory.Allocator) (arrow.Record, error) {
	if len(records) == 1 {
		records[0].Retain()
		return records[0], nil
	}

	columns := make([]arrow.Array, schema.NumFields())
	var rows int64
	for _, record := range records {
		rows += record.NumRows()
	}
	for i := range columns {
		if len(records) == 0 {
			builder := array.NewBuilder(mem, schema.Field(i).Type)
			columns[i] = builder.NewArray()
			builder.Release()
			continue
		}
		chunks := make([]arrow.Array, len(records))
		for j := range records {
			chunks[j] = records[j].Column(i)
		}
		column, err := array.Concatenate(chunks, mem)
		if err != nil {
			releaseAll(columns[:i])
			return nil, errors.Wrapf(err, "couldn't concatenate column %d", i)
		}
		columns[i] = column
	}
	record := array.NewRecord(schema, columns, rows)
	releaseAll(columns)
	return record, nil
}

func releaseAll[T interface{ Release() }](values []T) {
	for _, value := range values {
		value.Release()
	}
}

// WriteTo writes all flushed records to w as an Arrow IPC file.
func (s *Sink) WriteTo(w io.Writer) error {
	writer, err := ipc.NewFileWriter(w, ipc.WithSchema(s.builder.Schema()), ipc.WithAllocator(s.mem))
	if err != nil {
		return errors.Wrap(err, "couldn't create arrow file writer")
	}
	for i, record := range s.records {
		if err := writer.Write(record); err != nil {
			writer.Close()
			return errors.Wrapf(err, "couldn't write record batch %d", i)
		}
	}
	return errors.Wrap(writer.Close(), "couldn't close arrow file writer")
}
