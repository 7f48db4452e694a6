package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/KaramelBytes/dataclean-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/dataclean-cli/internal/config"
	"github.com/KaramelBytes/dataclean-cli/internal/dataset"
	"github.com/KaramelBytes/dataclean-cli/internal/store"
)

// maxUploadSize caps the request body of an upload at 50MB.
var maxUploadSize int64 = 50 * 1024 * 1024

// maxConcurrentProfiles bounds how many uploads are profiled at once.
const maxConcurrentProfiles = 4

var svAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an HTTP endpoint that profiles uploaded datasets",
	Long: `Start an HTTP server:

  POST /profile     multipart field "dataset" (CSV/TSV/XLSX) -> JSON summary
                    query: method, cutoff, save=true, text=true
  GET  /runs        saved runs, newest first
  GET  /runs/:id    one saved run
  GET  /healthz     liveness`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		addr := c.ServeAddr
		if cmd.Flags().Changed("addr") {
			addr = svAddr
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		logger.WithField("addr", addr).Info("listening")
		return newRouter(c, logger).Run(addr)
	},
}

// newRouter wires the profiling handlers. Each request gets its own Profiler.
func newRouter(c *cfgpkg.Config, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.MaxMultipartMemory = maxUploadSize

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	slots := semaphore.NewWeighted(maxConcurrentProfiles)
	r.POST("/profile", func(ctx *gin.Context) {
		if err := slots.Acquire(ctx.Request.Context(), 1); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled while waiting for a worker"})
			return
		}
		defer slots.Release(1)
		handleProfile(ctx, c, log)
	})
	r.GET("/runs", func(ctx *gin.Context) {
		st, err := store.Open(c.ReportsDir)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		runs, err := st.List()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out := make([]gin.H, 0, len(runs))
		for _, run := range runs {
			out = append(out, gin.H{"id": run.ID, "source": run.Source, "created_at": run.CreatedAt})
		}
		ctx.JSON(http.StatusOK, out)
	})
	r.GET("/runs/:id", func(ctx *gin.Context) {
		st, err := store.Open(c.ReportsDir)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		run, err := st.Load(ctx.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, run)
	})
	return r
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		log.WithFields(logrus.Fields{
			"method":     ctx.Request.Method,
			"path":       ctx.Request.URL.Path,
			"status":     ctx.Writer.Status(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		}).Debug("request")
	}
}

func handleProfile(ctx *gin.Context, c *cfgpkg.Config, log logrus.FieldLogger) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxUploadSize)
	file, header, err := ctx.Request.FormFile("dataset")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": uploadLimitMessage()})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded in field \"dataset\""})
		return
	}
	defer file.Close()
	if header.Size > maxUploadSize {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": uploadLimitMessage()})
		return
	}

	opt := dataset.DefaultLoadOptions()
	opt.NAValues = append(opt.NAValues, c.NAValues...)
	d, err := readUpload(file, header.Filename, opt)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d.Name = filepath.Base(header.Filename)

	s := c.Settings()
	if m := ctx.Query("method"); m != "" {
		s.CorrMethod = m
	}
	if v := ctx.Query("cutoff"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid cutoff: " + v})
			return
		}
		s.CorrCutoff = f
	}
	if err := s.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := newProfiler(c, d, s)
	sum := p.Summary()
	log.WithFields(logrus.Fields{"dataset": d.Name, "rows": d.Rows(), "columns": d.NumCols()}).Info("profiled upload")

	if ctx.Query("save") == "true" {
		st, err := store.Open(c.ReportsDir)
		if err == nil {
			run := store.NewRun(d.Name, "serve", sum)
			err = st.Save(run)
			ctx.Header("X-Run-ID", run.ID)
		}
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	if ctx.Query("text") == "true" {
		ctx.String(http.StatusOK, sum.Text())
		return
	}
	ctx.JSON(http.StatusOK, profileResponse(sum))
}

func uploadLimitMessage() string {
	return fmt.Sprintf("upload exceeds the %.1f MB limit", float64(maxUploadSize)/(1024*1024))
}

// profileResponse adds the rendered head rows, which Summary leaves out of its JSON form.
func profileResponse(sum analysis.Summary) gin.H {
	return gin.H{"summary": sum, "head": sum.Head}
}

// readUpload parses CSV/TSV directly; workbooks go through a temp file since excelize needs a path.
func readUpload(r io.Reader, filename string, opt dataset.LoadOptions) (*dataset.Dataset, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		tmp, err := os.CreateTemp("", "dataclean-*.xlsx")
		if err != nil {
			return nil, fmt.Errorf("buffer upload: %w", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := io.Copy(tmp, r); err != nil {
			tmp.Close()
			return nil, fmt.Errorf("buffer upload: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return nil, fmt.Errorf("buffer upload: %w", err)
		}
		return dataset.LoadXLSX(tmp.Name(), "", 1, opt)
	case strings.HasSuffix(lower, ".tsv"):
		opt.Delimiter = '\t'
		return dataset.ReadCSV(r, opt)
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"):
		opt.Delimiter = ','
		return dataset.ReadCSV(r, opt)
	default:
		return nil, fmt.Errorf("unsupported file type %q (use .csv, .tsv or .xlsx)", filepath.Ext(filename))
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&svAddr, "addr", "", "listen address (overrides serve_addr)")
}
