package factory

import (
	"fmt"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anime-shed/pancake-waffle-classifier/internal/logger"
	"github.com/anime-shed/pancake-waffle-classifier/internal/oracle"
	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
)

// OracleType represents the external labelling service to blend with
type OracleType string

const (
	// NoOracle classifies with the rule table only
	NoOracle OracleType = "none"
	// HTTPOracle posts images to a model server
	HTTPOracle OracleType = "http"
	// OCROracle reads food words printed on the image
	OCROracle OracleType = "ocr"
)

// StoreType represents different sample store backends
type StoreType string

const (
	// LocalStore reads samples from a directory
	LocalStore StoreType = "local"
	// AzureStore reads samples from a blob container
	AzureStore StoreType = "azure"
)

// OracleSettings is what CreateOracle needs to know
type OracleSettings struct {
	Type        OracleType
	URL         string
	OCRLanguage string
}

// StoreSettings is what CreateStore needs to know
type StoreSettings struct {
	Type           StoreType
	Dir            string
	AzureAccount   string
	AzureKey       string
	AzureContainer string
}

// OracleFactory creates oracles
type OracleFactory interface {
	// CreateOracle returns nil for NoOracle
	CreateOracle(settings OracleSettings) (analyzer.Oracle, error)
}

// StoreFactory creates sample stores
type StoreFactory interface {
	CreateStore(settings StoreSettings) (storage.SampleStore, error)
}

// oracleFactory implements OracleFactory
type oracleFactory struct{}

// NewOracleFactory creates a new oracle factory
func NewOracleFactory() OracleFactory {
	return &oracleFactory{}
}

// CreateOracle creates an oracle based on the specified type
func (f *oracleFactory) CreateOracle(settings OracleSettings) (analyzer.Oracle, error) {
	switch settings.Type {
	case NoOracle, "":
		return nil, nil
	case HTTPOracle:
		if settings.URL == "" {
			return nil, fmt.Errorf("http oracle needs a URL")
		}
		return oracle.NewHTTPOracle(settings.URL), nil
	case OCROracle:
		if !oracle.OCRAvailable {
			logger.WithField("oracle", string(settings.Type)).
				Warn("Binary built without cgo, OCR oracle will always fall back")
		}
		return oracle.NewOCROracle(settings.OCRLanguage), nil
	default:
		return nil, fmt.Errorf("unsupported oracle type: %s", settings.Type)
	}
}

// storeFactory implements StoreFactory
type storeFactory struct{}

// NewStoreFactory creates a new store factory
func NewStoreFactory() StoreFactory {
	return &storeFactory{}
}

// CreateStore creates a sample store based on the specified type
func (f *storeFactory) CreateStore(settings StoreSettings) (storage.SampleStore, error) {
	switch settings.Type {
	case LocalStore, "":
		return storage.NewLocalStore(settings.Dir)
	case AzureStore:
		return storage.NewAzureStore(settings.AzureAccount, settings.AzureKey, settings.AzureContainer)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", settings.Type)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	OracleFactory OracleFactory
	StoreFactory  StoreFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		OracleFactory: NewOracleFactory(),
		StoreFactory:  NewStoreFactory(),
	}
}
