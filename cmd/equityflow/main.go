package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"equityflow/config"
	"equityflow/internal/universe"
	"equityflow/logger"
	"equityflow/models"
	"equityflow/processor"
	"equityflow/reader/iex"
	"equityflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	strategyName := flag.String("strategy", "equal-weight", "Strategy to run: equal-weight, momentum or value")
	outputDir := flag.String("output", "", "Override for the configured output directory")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Writer.OutputDir = *outputDir
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	if cfg.Metrics.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	log.WithFields(logger.Fields{
		"service":  cfg.Equityflow.Name,
		"version":  cfg.Equityflow.Version,
		"strategy": *strategyName,
	}).Info("starting equityflow")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	strategy, err := processor.NewStrategy(*strategyName, cfg)
	if err != nil {
		log.WithError(err).Error("Failed to build strategy")
		os.Exit(1)
	}

	symbols, err := universe.Load(cfg.Universe.File)
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{"file": cfg.Universe.File}).Error("Failed to load symbol universe")
		os.Exit(1)
	}
	log.WithFields(logger.Fields{"symbols": len(symbols)}).Info("universe loaded")

	client, err := iex.NewClient(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to create market data client")
		os.Exit(1)
	}

	results, err := client.FetchAll(ctx, symbols)
	if err != nil {
		log.WithError(err).Error("Failed to fetch market data")
		os.Exit(1)
	}

	records := make([]*models.SymbolRecord, 0, len(results))
	for _, res := range results {
		if res.OK() {
			records = append(records, res.Record)
			continue
		}
		log.WithFields(logger.Fields{
			"symbol": res.Symbol,
			"kind":   string(res.Fail.Kind),
			"reason": res.Fail.Message,
		}).Warn("symbol dropped")
	}
	if len(records) == 0 {
		log.Error("no symbols fetched successfully, nothing to screen")
		os.Exit(1)
	}

	table, err := strategy.Run(records)
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{"strategy": strategy.Name()}).Error("Strategy run failed")
		os.Exit(1)
	}
	log.WithFields(logger.Fields{
		"strategy": strategy.Name(),
		"run_id":   table.RunID,
		"rows":     len(table.Rows),
	}).Info("screen complete")

	produced := make([]string, 0, 3)

	if cfg.Writer.Formats.Xlsx.Enabled {
		path := filepath.Join(cfg.Writer.OutputDir, strategy.FileBase()+".xlsx")
		if err := writer.WriteXlsx(table, path); err != nil {
			log.WithError(err).WithFields(logger.Fields{"path": path}).Error("Failed to write xlsx output")
			os.Exit(1)
		}
		log.WithFields(logger.Fields{"path": path}).Info("xlsx written")
		produced = append(produced, path)
	}

	if cfg.Writer.Formats.Csv.Enabled {
		path := filepath.Join(cfg.Writer.OutputDir, strategy.FileBase()+".csv")
		if err := writer.WriteCsv(table, path); err != nil {
			log.WithError(err).WithFields(logger.Fields{"path": path}).Error("Failed to write csv output")
			os.Exit(1)
		}
		log.WithFields(logger.Fields{"path": path}).Info("csv written")
		produced = append(produced, path)
	}

	if cfg.Writer.Archive.Parquet.Enabled {
		path := filepath.Join(cfg.Writer.OutputDir, "records.parquet")
		if err := writer.ArchiveParquet(records, path, cfg.Writer.Archive.Parquet.Compression); err != nil {
			log.WithError(err).WithFields(logger.Fields{"path": path}).Error("Failed to write parquet archive")
			os.Exit(1)
		}
		log.WithFields(logger.Fields{"path": path, "records": len(records)}).Info("parquet archive written")
		produced = append(produced, path)
	}

	if cfg.Storage.S3.Enabled {
		uploader, err := writer.NewS3Uploader(ctx, cfg)
		if err != nil {
			log.WithError(err).Error("Failed to create S3 uploader")
			os.Exit(1)
		}
		for _, path := range produced {
			key := uploader.ObjectKey(strategy.FileBase(), table.RunID, filepath.Base(path), table.CreatedAt)
			if err := uploader.UploadFile(ctx, path, key); err != nil {
				log.WithError(err).WithFields(logger.Fields{"path": path, "key": key}).Error("Failed to upload output")
				os.Exit(1)
			}
		}
	}

	logger.Report(log)
	log.Info("equityflow finished")
}
