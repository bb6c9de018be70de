package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/Neil2813/Content-Room/moderation/analysis"
	"github.com/Neil2813/Content-Room/moderation/audit"
	"github.com/Neil2813/Content-Room/moderation/decision"
	"github.com/Neil2813/Content-Room/moderation/engine"
	"github.com/Neil2813/Content-Room/moderation/prefilter"
	"github.com/Neil2813/Content-Room/moderation/resultcache"
	"github.com/Neil2813/Content-Room/moderation/speech"
	"github.com/Neil2813/Content-Room/moderation/textual"
	"github.com/Neil2813/Content-Room/moderation/video"
	"github.com/Neil2813/Content-Room/moderation/visual"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Server struct {
	logger *slog.Logger
	engine *engine.Engine
	echo   *echo.Echo
}

type Config struct {
	Logger            *slog.Logger
	RedisURL          string
	CacheTTL          time.Duration
	ProviderTimeout   time.Duration
	PrefilterConfig   string
	AWSRegion         string
	AWSAccessKeyID    string
	AWSSecretKey      string
	AWSRateLimit      float64
	ONNXBundleDir     string
	ONNXMaxConcurrent int64
	VisionLMHost      string
	VisionLMToken     string
	VisionLMModel     string
	ChatHost          string
	ChatToken         string
	ChatModel         string
	ChatFallbackHost  string
	ChatFallbackToken string
	ChatFallbackModel string
	WhisperHost       string
	WhisperToken      string
	WhisperModel      string
}

func NewServer(db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	pfcfg := prefilter.DefaultConfig()
	if config.PrefilterConfig != "" {
		cfg, err := prefilter.LoadConfig(config.PrefilterConfig)
		if err != nil {
			return nil, fmt.Errorf("loading prefilter config: %w", err)
		}
		logger.Info("loaded prefilter config", "path", config.PrefilterConfig)
		pfcfg = cfg
	}

	var cache resultcache.Store[*engine.Result]
	if config.RedisURL != "" {
		rc, err := resultcache.NewRedisStore[*engine.Result](config.RedisURL, config.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis result cache: %w", err)
		}
		cache = rc
	} else {
		cache = resultcache.NewMemStore[*engine.Result](5_000)
	}

	recorder, err := audit.NewGormRecorder(db)
	if err != nil {
		return nil, fmt.Errorf("initializing audit recorder: %w", err)
	}

	var imageProviders []analysis.ImageAnalyzer
	if config.AWSAccessKeyID != "" && config.AWSSecretKey != "" {
		logger.Info("configuring AWS Rekognition image labeler", "region", config.AWSRegion)
	}
	imageProviders = append(imageProviders, visual.NewRekognitionAnalyzer(
		config.AWSRegion, config.AWSAccessKeyID, config.AWSSecretKey, config.AWSRateLimit))
	if config.ONNXBundleDir != "" {
		logger.Info("configuring local NSFW model", "dir", config.ONNXBundleDir)
		imageProviders = append(imageProviders, visual.NewNSFWNet(config.ONNXBundleDir, config.ONNXMaxConcurrent))
	}
	if config.VisionLMHost != "" {
		logger.Info("configuring vision language model analyzer", "host", config.VisionLMHost)
		imageProviders = append(imageProviders, visual.NewVisionLMClient(
			config.VisionLMHost, config.VisionLMToken, config.VisionLMModel))
	}
	imageProviders = append(imageProviders, visual.ColorHeuristic{})

	var textProviders []analysis.TextAnalyzer
	textProviders = append(textProviders, textual.NewComprehendAnalyzer(
		config.AWSRegion, config.AWSAccessKeyID, config.AWSSecretKey, config.AWSRateLimit))
	if config.ONNXBundleDir != "" {
		textProviders = append(textProviders, textual.NewToxNet(config.ONNXBundleDir, config.ONNXMaxConcurrent))
	}
	var gens []textual.Generator
	if config.ChatHost != "" {
		gens = append(gens, textual.NewChatGenerator("primary", config.ChatHost, config.ChatToken, config.ChatModel))
	}
	if config.ChatFallbackHost != "" {
		gens = append(gens, textual.NewChatGenerator("fallback", config.ChatFallbackHost, config.ChatFallbackToken, config.ChatFallbackModel))
	}
	if len(gens) > 0 {
		logger.Info("configuring chat completion text analyzer", "generators", len(gens))
		textProviders = append(textProviders, textual.NewLLMTextAnalyzer(logger, gens...))
	}
	textProviders = append(textProviders, &textual.KeywordHeuristic{Denylist: pfcfg.Denylist})

	var transcribers []speech.Transcriber
	if config.WhisperHost != "" {
		logger.Info("configuring speech transcription", "host", config.WhisperHost)
		transcribers = append(transcribers, speech.NewWhisperClient(
			config.WhisperHost, config.WhisperToken, config.WhisperModel))
	}

	var frames video.FrameSource = video.NewFFmpegSource()
	if !frames.Available() {
		logger.Warn("ffmpeg not found on PATH, falling back to GIF-only frame sampling")
		frames = &video.GIFSource{}
	}

	eng := engine.Engine{
		Logger:       logger,
		Text:         textProviders,
		Image:        imageProviders,
		Transcribers: transcribers,
		Frames:       frames,
		Cache:        cache,
		Prefilter:    pfcfg,
		Decision:     decision.DefaultConfig(),
		Timeout:      config.ProviderTimeout,
		Audit:        recorder,
	}

	s := &Server{
		logger: logger,
		engine: &eng,
	}

	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (s *Server) Run(ctx context.Context, bind string) error {
	e := echo.New()
	e.HideBanner = true
	e.GET("/health", s.handleHealthcheck)
	e.POST("/moderation/text", s.handleModerateText)
	e.POST("/moderation/image", s.handleModerateImage)
	e.POST("/moderation/audio", s.handleModerateAudio)
	e.POST("/moderation/video", s.handleModerateVideo)
	e.POST("/moderation/multimodal", s.handleModerateMultimodal)
	s.echo = e
	return e.Start(bind)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.echo == nil {
		return nil
	}
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealthcheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type TextPayload struct {
	Text string `json:"text"`
}

func (s *Server) handleModerateText(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "handleModerateText")
	defer span.End()

	var payload TextPayload
	if err := c.Bind(&payload); err != nil {
		return err
	}
	if payload.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}

	res, err := s.engine.ModerateText(ctx, payload.Text)
	if err != nil {
		return s.moderationError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleModerateImage(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "handleModerateImage")
	defer span.End()

	data, _, err := readUpload(c)
	if err != nil {
		return err
	}

	res, err := s.engine.ModerateImage(ctx, data)
	if err != nil {
		return s.moderationError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleModerateAudio(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "handleModerateAudio")
	defer span.End()

	data, filename, err := readUpload(c)
	if err != nil {
		return err
	}

	res, err := s.engine.ModerateAudio(ctx, data, filename)
	if err != nil {
		return s.moderationError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleModerateVideo(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "handleModerateVideo")
	defer span.End()

	data, filename, err := readUpload(c)
	if err != nil {
		return err
	}

	res, err := s.engine.ModerateVideo(ctx, data, filename)
	if err != nil {
		return s.moderationError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// handleModerateMultimodal accepts a multipart form with an optional "text"
// field plus any number of files under the "image", "audio", and "video"
// field names, and moderates them as a single combined submission.
func (s *Server) handleModerateMultimodal(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "handleModerateMultimodal")
	defer span.End()

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expected multipart form")
	}

	parts := make(map[string]engine.Part)
	if text := c.FormValue("text"); text != "" {
		parts["text"] = engine.Part{Modality: analysis.ModalityText, Text: text}
	}
	for field, modality := range map[string]analysis.Modality{
		"image": analysis.ModalityImage,
		"audio": analysis.ModalityAudio,
		"video": analysis.ModalityVideo,
	} {
		for i, fh := range form.File[field] {
			data, err := readFormFile(fh)
			if err != nil {
				return err
			}
			name := field
			if i > 0 {
				name = fmt.Sprintf("%s-%d", field, i)
			}
			parts[name] = engine.Part{Modality: modality, Data: data, Filename: fh.Filename}
		}
	}
	if len(parts) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no content parts provided")
	}

	res, err := s.engine.ModerateParts(ctx, parts)
	if err != nil {
		return s.moderationError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// readUpload accepts either a multipart "file" field or a raw request body.
func readUpload(c echo.Context) ([]byte, string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		data, err := readFormFile(fh)
		return data, fh.Filename, err
	}
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "reading request body")
	}
	if len(data) == 0 {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "empty request body")
	}
	return data, "", nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "opening uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "reading uploaded file")
	}
	return data, nil
}

func (s *Server) moderationError(c echo.Context, err error) error {
	requestsFailed.Inc()
	var decodeErr *analysis.DecodeError
	if errors.As(err, &decodeErr) {
		return echo.NewHTTPError(http.StatusBadRequest, decodeErr.Error())
	}
	var allFailed *analysis.AllFailedError
	if errors.Is(err, analysis.ErrProviderUnavailable) || errors.As(err, &allFailed) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	s.logger.Error("moderation request failed", "err", err)
	return echo.NewHTTPError(http.StatusInternalServerError)
}
