package main

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maquina-noticias/pipeline/internal/model"
	"github.com/maquina-noticias/pipeline/internal/pipeline"
)

var (
	processMedium      string
	processHeadline    string
	processURL         string
	processCountry     string
	processDocumentID  string
	processConcurrency int
)

var processCmd = &cobra.Command{
	Use:   "process <file> [file...]",
	Short: "Run the extraction pipeline on local text files",
	Long:  "Reads each file as one fragment and runs the four phases synchronously. With --medio and --titular the input is treated as a full article; otherwise as a fragment of --documento-id.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("process"); err != nil {
			return err
		}

		ctx := cmd.Context()

		// One-shot runs are always synchronous; no tracker needed.
		env, err := initPipeline(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		isArticle := processMedium != "" && processHeadline != ""
		if (processMedium != "") != (processHeadline != "") {
			return eris.New("process: --medio and --titular must be set together")
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(processConcurrency)

		var mu sync.Mutex
		var results []*model.PipelineResult
		var failed atomic.Int64

		for _, path := range args {
			g.Go(func() error {
				raw, err := os.ReadFile(path)
				if err != nil {
					failed.Add(1)
					zap.L().Error("read input file", zap.String("file", path), zap.Error(err))
					return nil
				}

				sub := pipeline.Submission{
					Fragment:   model.NewFragment(processURL, string(raw)),
					DocumentID: processDocumentID,
				}
				if isArticle {
					sub.Article = &model.ArticleMetadata{
						URL:      processURL,
						Medium:   processMedium,
						Country:  processCountry,
						Headline: processHeadline,
					}
				}

				outcome, err := env.Pipeline.Process(gCtx, sub)
				if err != nil {
					failed.Add(1)
					zap.L().Error("processing failed",
						zap.String("file", path),
						zap.String("kind", pipeline.Classify(err)),
						zap.Error(err),
					)
					return nil
				}

				hechos, entidades, _, _, _ := outcome.Result.Counts()
				zap.L().Info("fragment processed",
					zap.String("file", path),
					zap.String("fragment_id", outcome.Result.FragmentID),
					zap.Int("hechos", hechos),
					zap.Int("entidades", entidades),
				)

				mu.Lock()
				results = append(results, outcome.Result)
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return eris.Wrap(err, "encode results")
		}

		if n := failed.Load(); n > 0 {
			return eris.Errorf("process: %d of %d inputs failed", n, len(args))
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVar(&processMedium, "medio", "", "publishing medium (with --titular, marks the input as a full article)")
	processCmd.Flags().StringVar(&processHeadline, "titular", "", "article headline")
	processCmd.Flags().StringVar(&processURL, "url", "", "source article URL")
	processCmd.Flags().StringVar(&processCountry, "pais", "", "publication country")
	processCmd.Flags().StringVar(&processDocumentID, "documento-id", "", "parent document id for fragment-level input")
	processCmd.Flags().IntVar(&processConcurrency, "concurrency", 2, "number of files processed in parallel")
	rootCmd.AddCommand(processCmd)
}
