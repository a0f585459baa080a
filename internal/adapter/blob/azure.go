package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureStore keeps blobs in one Azure Storage container.
type AzureStore struct {
	client    *azblob.Client
	container string
}

// NewAzureStore connects with a storage connection string and creates the
// container if it does not exist.
func NewAzureStore(ctx context.Context, connectionString, container string) (*AzureStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}
	if _, err := client.CreateContainer(ctx, container, nil); err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("create container %s: %w", container, err)
	}
	return &AzureStore{client: client, container: container}, nil
}

// Put uploads data, replacing any existing blob.
func (s *AzureStore) Put(ctx context.Context, name string, data []byte) error {
	if _, err := s.client.UploadBuffer(ctx, s.container, name, data, nil); err != nil {
		return fmt.Errorf("upload %s/%s: %w", s.container, name, err)
	}
	return nil
}

// Get downloads a blob.
func (s *AzureStore) Get(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrBlobNotFound, s.container, name)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", s.container, name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", s.container, name, err)
	}
	return data, nil
}
