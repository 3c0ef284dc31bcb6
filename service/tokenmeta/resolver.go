// Package tokenmeta resolves display metadata for mints, combining the
// on-chain metadata account with the off-chain JSON document its URI
// points at.
package tokenmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/dloomlabs/forge/service/accounts"
	"github.com/dloomlabs/forge/service/derive"
	solanaclient "github.com/dloomlabs/forge/service/solana"
)

// Placeholders used when a mint has no metadata account.
const (
	UnknownName   = "Unknown"
	UnknownSymbol = "UNK"
)

// maxDocumentSize bounds off-chain metadata downloads.
const maxDocumentSize = 1 << 20

// TokenMeta is resolved metadata for one mint. On-chain fields are always
// populated, with placeholders when no account exists; off-chain fields
// are best effort.
type TokenMeta struct {
	Mint        solana.PublicKey `json:"mint"`
	Name        string           `json:"name"`
	Symbol      string           `json:"symbol"`
	URI         string           `json:"uri,omitempty"`
	Image       string           `json:"image,omitempty"`
	Description string           `json:"description,omitempty"`
	ExternalURL string           `json:"external_url,omitempty"`
	Twitter     string           `json:"twitter,omitempty"`
	Telegram    string           `json:"telegram,omitempty"`
}

// offchainDocument is the JSON shape of the hosted metadata file.
type offchainDocument struct {
	Image       string `json:"image"`
	Description string `json:"description"`
	ExternalURL string `json:"external_url"`
	Attributes  []struct {
		TraitType string `json:"trait_type"`
		Value     string `json:"value"`
	} `json:"attributes"`
}

// Resolver fetches and decodes token metadata.
type Resolver struct {
	client          *solanaclient.Client
	httpClient      *http.Client
	logger          *slog.Logger
	metadataProgram solana.PublicKey
}

// NewResolver creates a Resolver. fetchTimeout bounds each off-chain
// document download.
func NewResolver(client *solanaclient.Client, metadataProgram solana.PublicKey, fetchTimeout time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Resolver{
		client:          client,
		httpClient:      &http.Client{Timeout: fetchTimeout},
		logger:          logger,
		metadataProgram: metadataProgram,
	}
}

// Resolve fetches the on-chain metadata for mint and hydrates it with the
// off-chain document when a URI is present. A mint without a metadata
// account resolves to placeholder values rather than an error; off-chain
// fetch failures are logged and leave those fields empty.
func (r *Resolver) Resolve(ctx context.Context, mint solana.PublicKey) (*TokenMeta, error) {
	meta := &TokenMeta{
		Mint:   mint,
		Name:   UnknownName,
		Symbol: UnknownSymbol,
	}

	addr, _, err := derive.MetadataAddress(r.metadataProgram, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive metadata address for %s: %w", mint, err)
	}

	info, err := r.client.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata for %s: %w", mint, err)
	}
	if info == nil || info.Value == nil {
		return meta, nil
	}

	decoded, err := accounts.DecodeMetadata(info.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", mint, err)
	}
	meta.Name = decoded.Name
	meta.Symbol = decoded.Symbol
	meta.URI = decoded.URI

	if meta.URI != "" {
		r.hydrate(ctx, meta)
	}
	return meta, nil
}

// hydrate fills the off-chain fields from the document at meta.URI.
func (r *Resolver) hydrate(ctx context.Context, meta *TokenMeta) {
	doc, err := r.fetchDocument(ctx, meta.URI)
	if err != nil {
		r.logger.Debug("failed to fetch off-chain metadata",
			"mint", meta.Mint,
			"uri", meta.URI,
			"error", err)
		return
	}

	meta.Image = doc.Image
	meta.Description = doc.Description
	meta.ExternalURL = doc.ExternalURL
	for _, attr := range doc.Attributes {
		switch strings.ToLower(attr.TraitType) {
		case "twitter":
			meta.Twitter = attr.Value
		case "telegram":
			meta.Telegram = attr.Value
		}
	}
}

func (r *Resolver) fetchDocument(ctx context.Context, uri string) (*offchainDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata uri: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata host returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, err
	}

	var doc offchainDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed metadata document: %w", err)
	}
	return &doc, nil
}
