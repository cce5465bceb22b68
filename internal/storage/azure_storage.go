package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureScheme addresses blobs as azblob://<container>/<blob path>.
const AzureScheme = "azblob"

type AzureBlobFetcher struct {
	client   *azblob.Client
	maxBytes int64
}

func NewAzureBlobFetcher(accountName string, accountKey string, maxBytes int64) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &AzureBlobFetcher{client: client, maxBytes: maxBytes}, nil
}

// ParseBlobURL splits azblob://container/path/to/blob into its container and blob name.
func ParseBlobURL(blobURL string) (container, blob string, err error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}
	if parsedURL.Scheme != AzureScheme {
		return "", "", fmt.Errorf("invalid blob URL scheme %q", parsedURL.Scheme)
	}

	container = parsedURL.Host
	blob = strings.TrimPrefix(parsedURL.Path, "/")
	if container == "" || blob == "" {
		return "", "", fmt.Errorf("blob URL must name a container and a blob: %q", blobURL)
	}
	return container, blob, nil
}

func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobURL string) ([]byte, error) {
	container, blob, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	return readLimited(retryReader, s.maxBytes)
}
