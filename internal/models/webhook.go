package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// WebhookRequest is the subset of the Dialogflow fulfillment request the service reads.
type WebhookRequest struct {
	ResponseID  string      `json:"responseId"`
	Session     string      `json:"session"`
	QueryResult QueryResult `json:"queryResult"`
}

type QueryResult struct {
	QueryText    string         `json:"queryText"`
	Parameters   map[string]any `json:"parameters"`
	Intent       Intent         `json:"intent"`
	LanguageCode string         `json:"languageCode"`
}

type Intent struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// UnmarshalJSON keeps the intent and query text even when parameters is not an
// object; such parameters decode as an empty set. Numbers stay json.Number.
func (q *QueryResult) UnmarshalJSON(data []byte) error {
	type plain QueryResult
	var aux struct {
		plain
		Parameters json.RawMessage `json:"parameters"`
	}

	err := json.Unmarshal(data, &aux)
	var typeErr *json.UnmarshalTypeError
	if err != nil && !errors.As(err, &typeErr) {
		return err
	}

	*q = QueryResult(aux.plain)
	q.Parameters = decodeParameters(aux.Parameters)
	return nil
}

func decodeParameters(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var params map[string]any
	if err := decoder.Decode(&params); err != nil {
		return map[string]any{}
	}
	return params
}

// WebhookResponse is what the platform shows to the end user.
type WebhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}
