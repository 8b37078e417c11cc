package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type azureStore struct {
	client    *azblob.Client
	container string
}

// NewAzureStore serves samples from a blob container using a shared key
func NewAzureStore(accountName, accountKey, container string) (SampleStore, error) {
	return newAzureStore(fmt.Sprintf("https://%s.blob.core.windows.net", accountName), accountName, accountKey, container)
}

func newAzureStore(serviceURL, accountName, accountKey, container string) (*azureStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &azureStore{client: client, container: container}, nil
}

func (s *azureStore) Name() string {
	return "azure"
}

func (s *azureStore) Open(ctx context.Context, fileName string) (io.ReadCloser, error) {
	downloadResponse, err := s.client.DownloadStream(ctx, s.container, fileName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, s.container, fileName)
		}
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return downloadResponse.Body, nil
}
