package services

import (
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/performance"
)

// MediaService stores uploaded background images.
type MediaService struct {
	processor   *media.ImageProcessor
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

func NewMediaService(processor *media.ImageProcessor, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *MediaService {
	return &MediaService{processor: processor, logger: logger, perfTracker: perfTracker}
}

// UploadBackground stores a base64 data URL image and returns its public
// location.
func (m *MediaService) UploadBackground(sessionID, data, name string) (*media.ProcessedImage, error) {
	marker := m.perfTracker.StartOperation("media:upload_background", sessionID)
	defer m.perfTracker.CompleteOperation(marker)

	img, err := m.processor.ProcessBackgroundImage(data, name)
	if err != nil {
		marker.SetError(err)
		m.logger.Backgrounds().Warn("Background upload rejected", "sessionId", sessionID, "error", err)
		return nil, err
	}
	marker.AddMetadata("url", img.URL)
	m.logger.Backgrounds().Info("Background image stored", "sessionId", sessionID, "url", img.URL, "variants", len(img.Variants))
	return img, nil
}

func (m *MediaService) DeleteBackground(url string) error {
	return m.processor.Delete(url)
}
