package batch

import (
	"encoding/json"

	"github.com/meridiandb/meridian-go/core"
)

// OperationResult is the outcome of one operation within an executed
// batch, as the document database reports it.
type OperationResult struct {
	StatusCode             int             `json:"statusCode"`
	ResourceBody           json.RawMessage `json:"resourceBody,omitempty"`
	ETag                   string          `json:"eTag,omitempty"`
	RequestCharge          float64         `json:"requestCharge,omitempty"`
	RetryAfterMilliseconds *int64          `json:"retryAfterMilliseconds,omitempty"`
	SubStatusCode          *int            `json:"subStatusCode,omitempty"`
}

// IsSuccess reports whether this operation's status code is in the 2xx
// range.
func (r OperationResult) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeBody unmarshals ResourceBody into v. It is a no-op returning nil
// when there is no resource body.
func (r OperationResult) DecodeBody(v interface{}) error {
	if len(r.ResourceBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.ResourceBody, v); err != nil {
		return core.WrapError("batch.OperationResult.DecodeBody", core.KindDataConversion, err)
	}
	return nil
}

// Response is the decoded result of executing a TransactionalBatch.
type Response struct {
	Results []OperationResult
}

// DecodeResponse parses the raw JSON array the batch execute endpoint
// returns. The wire format is a bare array, not an object with a
// "results" field, so this cannot use json.Unmarshal on Response
// directly.
func DecodeResponse(data []byte) (*Response, error) {
	var results []OperationResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, core.WrapError("batch.DecodeResponse", core.KindDataConversion, err)
	}
	return &Response{Results: results}, nil
}

// IsSuccess reports whether every operation in the batch succeeded. A
// transactional batch either commits entirely or not at all, so a
// single failing operation implies the whole batch was rolled back.
func (r *Response) IsSuccess() bool {
	for _, result := range r.Results {
		if !result.IsSuccess() {
			return false
		}
	}
	return true
}
