// Package client executes checksum queries against a Presto-compatible
// statement API and materializes the single summary row into a
// models.ChecksumResult.
package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"go.verisql.io/verifier/config"
	"go.verisql.io/verifier/pkg/models"
	"go.verisql.io/verifier/utils"
)

// Runner executes a generated checksum query against one side (control or
// test) and returns its summary. Query failures propagate opaquely.
type Runner interface {
	RunChecksumQuery(ctx context.Context, sql string) (*models.ChecksumResult, error)
}

// ResultColumn is the column metadata returned by the statement API.
type ResultColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryError is the error block of a failed statement.
type QueryError struct {
	Message   string `json:"message"`
	ErrorName string `json:"errorName"`
	ErrorCode int    `json:"errorCode"`
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %s (%s)", e.Message, e.ErrorName)
}

// statementPage is one page of the paged statement protocol.
type statementPage struct {
	ID      string          `json:"id"`
	NextURI string          `json:"nextUri"`
	Columns []ResultColumn  `json:"columns"`
	Data    [][]interface{} `json:"data"`
	Error   *QueryError     `json:"error"`
}

// Client runs statements against one cluster over HTTP. Safe for concurrent
// use; all state is immutable after construction.
type Client struct {
	logger     *zap.Logger
	endpoint   string
	user       string
	catalog    string
	schema     string
	token      string
	httpClient *http.Client
}

// New builds a statement client for the given cluster. token may be empty
// when the cluster does not require authentication.
func New(logger *zap.Logger, cluster config.Cluster, token string) *Client {
	return &Client{
		logger:     logger,
		endpoint:   strings.TrimSuffix(cluster.Endpoint, "/"),
		user:       cluster.User,
		catalog:    cluster.Catalog,
		schema:     cluster.Schema,
		token:      token,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// RunChecksumQuery submits the query, follows nextUri until the engine hands
// back the summary row, and converts it into a ChecksumResult.
func (c *Client) RunChecksumQuery(ctx context.Context, sql string) (*models.ChecksumResult, error) {
	page, err := c.post(ctx, sql)
	if err != nil {
		return nil, err
	}
	var columns []ResultColumn
	var data [][]interface{}
	for {
		if page.Error != nil {
			return nil, page.Error
		}
		if len(page.Columns) > 0 {
			columns = page.Columns
		}
		data = append(data, page.Data...)
		if page.NextURI == "" {
			break
		}
		if page, err = c.get(ctx, page.NextURI); err != nil {
			return nil, err
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("checksum query returned no rows")
	}
	if len(data) > 1 {
		c.logger.Warn("checksum query returned more than one row, using the first",
			zap.Int("rows", len(data)))
	}
	return toChecksumResult(columns, data[0])
}

func (c *Client) post(ctx context.Context, sql string) (*statementPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/v1/statement", strings.NewReader(sql))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	return c.do(req)
}

func (c *Client) get(ctx context.Context, uri string) (*statementPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	return c.do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Presto-User", c.user)
	if c.catalog != "" {
		req.Header.Set("X-Presto-Catalog", c.catalog)
	}
	if c.schema != "" {
		req.Header.Set("X-Presto-Schema", c.schema)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(req *http.Request) (*statementPage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.LogError(c.logger, err, "failed to close statement response body")
		}
	}()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("statement request failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var page statementPage
	if err := decoder.Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode statement response: %w", err)
	}
	return &page, nil
}

// toChecksumResult maps the summary row onto the tagged value union using the
// response column metadata: varbinary digests arrive base64-encoded, counts
// and cardinality sums as integers, sums as doubles.
func toChecksumResult(columns []ResultColumn, row []interface{}) (*models.ChecksumResult, error) {
	if len(columns) != len(row) {
		return nil, fmt.Errorf("result row has %d values for %d columns", len(row), len(columns))
	}
	var rowCount int64
	fields := make(map[string]models.Value, len(columns))
	for i, col := range columns {
		value, err := toValue(col, row[i])
		if err != nil {
			return nil, err
		}
		if col.Name == "row_count" {
			n, ok := value.Int64()
			if !ok {
				return nil, fmt.Errorf("row_count is not an integer")
			}
			rowCount = n
			continue
		}
		fields[col.Name] = value
	}
	return models.NewChecksumResult(rowCount, fields), nil
}

func toValue(col ResultColumn, raw interface{}) (models.Value, error) {
	if raw == nil {
		return models.NullValue, nil
	}
	base := col.Type
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	switch base {
	case "varbinary":
		text, ok := raw.(string)
		if !ok {
			return models.NullValue, fmt.Errorf("varbinary field %s is not a string", col.Name)
		}
		digest, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return models.NullValue, fmt.Errorf("failed to decode digest field %s: %w", col.Name, err)
		}
		return models.DigestValue(digest), nil
	case "tinyint", "smallint", "integer", "bigint":
		number, ok := raw.(json.Number)
		if !ok {
			return models.NullValue, fmt.Errorf("integer field %s is not numeric", col.Name)
		}
		n, err := number.Int64()
		if err != nil {
			return models.NullValue, fmt.Errorf("failed to parse integer field %s: %w", col.Name, err)
		}
		return models.Int64Value(n), nil
	case "real", "double":
		number, ok := raw.(json.Number)
		if !ok {
			return models.NullValue, fmt.Errorf("floating field %s is not numeric", col.Name)
		}
		f, err := number.Float64()
		if err != nil {
			return models.NullValue, fmt.Errorf("failed to parse floating field %s: %w", col.Name, err)
		}
		return models.Float64Value(f), nil
	default:
		return models.NullValue, fmt.Errorf("unexpected result type %s for field %s", col.Type, col.Name)
	}
}
