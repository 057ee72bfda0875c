package writer

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	parquetwriter "github.com/xitongsys/parquet-go/writer"

	"equityflow/models"
)

// ParquetRecord is the flattened archive row for one fetched symbol.
// Optional API fields archive as NaN so the schema stays non-nullable.
type ParquetRecord struct {
	Symbol          string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	FetchedAt       int64   `parquet:"name=fetched_at, type=INT64"`
	LatestPrice     float64 `parquet:"name=latest_price, type=DOUBLE"`
	MarketCap       float64 `parquet:"name=market_cap, type=DOUBLE"`
	PERatio         float64 `parquet:"name=pe_ratio, type=DOUBLE"`
	PriceToBook     float64 `parquet:"name=price_to_book, type=DOUBLE"`
	PriceToSales    float64 `parquet:"name=price_to_sales, type=DOUBLE"`
	EnterpriseValue float64 `parquet:"name=enterprise_value, type=DOUBLE"`
	EBITDA          float64 `parquet:"name=ebitda, type=DOUBLE"`
	GrossProfit     float64 `parquet:"name=gross_profit, type=DOUBLE"`
	Year1ChangePct  float64 `parquet:"name=year1_change_percent, type=DOUBLE"`
	Month6ChangePct float64 `parquet:"name=month6_change_percent, type=DOUBLE"`
	Month3ChangePct float64 `parquet:"name=month3_change_percent, type=DOUBLE"`
	Month1ChangePct float64 `parquet:"name=month1_change_percent, type=DOUBLE"`
}

// memoryFileWriter implements the ParquetFile interface for in-memory
// writing.
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	// Only sequential writes are needed for archive creation.
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error) {
	return mfw.buffer.Read(b)
}

func (mfw *memoryFileWriter) Write(b []byte) (int, error) {
	return mfw.buffer.Write(b)
}

func (mfw *memoryFileWriter) Close() error {
	return nil
}

func (mfw *memoryFileWriter) Bytes() []byte {
	return mfw.buffer.Bytes()
}

// ArchiveParquet writes the raw fetched records to a parquet file so a
// run's input snapshot can be replayed later.
func ArchiveParquet(records []*models.SymbolRecord, path, compression string) error {
	data, err := EncodeParquet(records, compression)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write parquet archive: %w", err)
		}
		return nil
	})
}

// EncodeParquet serializes records to parquet bytes in memory.
func EncodeParquet(records []*models.SymbolRecord, compression string) ([]byte, error) {
	fw := newMemoryFileWriter()

	pw, err := parquetwriter.NewParquetWriter(fw, new(ParquetRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	switch compression {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	case "uncompressed", "":
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	default:
		return nil, fmt.Errorf("unsupported parquet compression %q", compression)
	}

	for _, record := range records {
		if err := pw.Write(toParquetRecord(record)); err != nil {
			return nil, fmt.Errorf("failed to write parquet record for %s: %w", record.Symbol, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}
	return fw.Bytes(), nil
}

var nan = math.NaN()

func derefNaN(v *float64) float64 {
	if v == nil {
		return nan
	}
	return *v
}

func toParquetRecord(r *models.SymbolRecord) ParquetRecord {
	return ParquetRecord{
		Symbol:          r.Symbol,
		FetchedAt:       r.FetchedAt.UnixMilli(),
		LatestPrice:     derefNaN(r.Quote.LatestPrice),
		MarketCap:       derefNaN(r.Quote.MarketCap),
		PERatio:         derefNaN(r.Quote.PERatio),
		PriceToBook:     derefNaN(r.Stats.PriceToBook),
		PriceToSales:    derefNaN(r.Stats.PriceToSales),
		EnterpriseValue: derefNaN(r.Stats.EnterpriseValue),
		EBITDA:          derefNaN(r.Stats.EBITDA),
		GrossProfit:     derefNaN(r.Stats.GrossProfit),
		Year1ChangePct:  derefNaN(r.Stats.Year1ChangePercent),
		Month6ChangePct: derefNaN(r.Stats.Month6ChangePercent),
		Month3ChangePct: derefNaN(r.Stats.Month3ChangePercent),
		Month1ChangePct: derefNaN(r.Stats.Month1ChangePercent),
	}
}
