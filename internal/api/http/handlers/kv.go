package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/flashkv/engine/internal/api/validation"
	"github.com/flashkv/engine/internal/logger"
	"github.com/flashkv/engine/internal/schema"
	"github.com/flashkv/engine/internal/storage/codec"
	"github.com/flashkv/engine/internal/storage/kv"
)

// KVHandlers provides HTTP handlers for store operations
type KVHandlers struct {
	store     *kv.Store
	validator *schema.Validator // nil when no value schema is configured
	log       zerolog.Logger
}

// NewKVHandlers creates new KV handlers
func NewKVHandlers(store *kv.Store, validator *schema.Validator) *KVHandlers {
	return &KVHandlers{
		store:     store,
		validator: validator,
		log:       logger.WithComponent("http.kv"),
	}
}

// ValuePayload carries a value in either of its two representations:
// "value" holds arbitrary JSON for structured values, "raw_base64" holds
// base64-encoded bytes for raw values. Exactly one must be set on write.
type ValuePayload struct {
	Value     json.RawMessage `json:"value,omitempty"`
	RawBase64 string          `json:"raw_base64,omitempty"`
}

// SetRequest represents a request to set a key
type SetRequest struct {
	Key string `json:"key"`
	ValuePayload
	TTLSeconds int64 `json:"ttl_seconds,omitempty"`
}

// KeyRequest represents a request naming a single key
type KeyRequest struct {
	Key string `json:"key"`
}

// KeysRequest represents a request naming multiple keys
type KeysRequest struct {
	Keys []string `json:"keys"`
}

// TwoKeyRequest represents a request retargeting a key
type TwoKeyRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// ExpireRequest represents a request to set a key's TTL
type ExpireRequest struct {
	Key        string `json:"key"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// StatusResponse is the minimal success/failure envelope
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// GetResponse represents a response carrying an optional value
type GetResponse struct {
	Status string        `json:"status"`
	Found  bool          `json:"found"`
	Data   *ValuePayload `json:"data,omitempty"`
}

// GetManyResponse maps found keys to their values; absent keys are
// omitted, never present as null entries
type GetManyResponse struct {
	Status string                  `json:"status"`
	Values map[string]ValuePayload `json:"values"`
}

// BoolResponse represents a response to exists/update/move requests
type BoolResponse struct {
	Status string `json:"status"`
	Result bool   `json:"result"`
}

// KeysResponse represents a response listing keys
type KeysResponse struct {
	Status string   `json:"status"`
	Keys   []string `json:"keys"`
}

// ExpireResponse carries a key's stored expiry, nil when the key is
// missing or never expires
type ExpireResponse struct {
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// StatsResponse carries row counts; count includes unswept expired rows
type StatsResponse struct {
	Status  string `json:"status"`
	Count   int64  `json:"count"`
	Expired int64  `json:"expired"`
}

// CleanupResponse reports how many expired rows a sweep removed
type CleanupResponse struct {
	Status string `json:"status"`
	Reaped int64  `json:"reaped"`
}

// Set handles POST /api/v1/kv/set
func (h *KVHandlers) Set(w http.ResponseWriter, r *http.Request) {
	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ttl, err := requestTTL(req.TTLSeconds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := h.decodePayload(req.ValuePayload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Put(r.Context(), req.Key, value, ttl); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// Get handles POST /api/v1/kv/get
func (h *KVHandlers) Get(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, found, err := h.store.Get(r.Context(), req.Key)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, GetResponse{Status: "success", Found: false})
		return
	}

	data, err := encodePayload(value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, GetResponse{Status: "success", Found: true, Data: &data})
}

// Exists handles POST /api/v1/kv/exists
func (h *KVHandlers) Exists(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	exists, err := h.store.Exists(r.Context(), req.Key)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BoolResponse{Status: "success", Result: exists})
}

// Delete handles POST /api/v1/kv/delete
func (h *KVHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Delete(r.Context(), req.Key); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// SetMany handles POST /api/v1/kv/set-many
func (h *KVHandlers) SetMany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entries []SetRequest `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, "entries cannot be empty")
		return
	}
	if len(req.Entries) > validation.MaxBatchSize {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("batch size (%d) exceeds maximum (%d)", len(req.Entries), validation.MaxBatchSize))
		return
	}

	entries := make(map[string]kv.Entry, len(req.Entries))
	for _, e := range req.Entries {
		if err := validation.ValidateKey(e.Key); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ttl, err := requestTTL(e.TTLSeconds)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		value, err := h.decodePayload(e.ValuePayload)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		entries[e.Key] = kv.Entry{Value: value, TTL: ttl}
	}

	if err := h.store.PutMany(r.Context(), entries); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// GetMany handles POST /api/v1/kv/get-many
func (h *KVHandlers) GetMany(w http.ResponseWriter, r *http.Request) {
	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKeys(req.Keys); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	values, err := h.store.GetMany(r.Context(), req.Keys)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	out := make(map[string]ValuePayload, len(values))
	for key, value := range values {
		data, err := encodePayload(value)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out[key] = data
	}
	writeJSON(w, http.StatusOK, GetManyResponse{Status: "success", Values: out})
}

// DeleteMany handles POST /api/v1/kv/delete-many
func (h *KVHandlers) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKeys(req.Keys); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.DeleteMany(r.Context(), req.Keys); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// Pop handles POST /api/v1/kv/pop
func (h *KVHandlers) Pop(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, found, err := h.store.Pop(r.Context(), req.Key)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, GetResponse{Status: "success", Found: false})
		return
	}

	data, err := encodePayload(value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, GetResponse{Status: "success", Found: true, Data: &data})
}

// Move handles POST /api/v1/kv/move
func (h *KVHandlers) Move(w http.ResponseWriter, r *http.Request) {
	var req TwoKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Source); err != nil {
		writeError(w, http.StatusBadRequest, "source: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Destination); err != nil {
		writeError(w, http.StatusBadRequest, "destination: "+err.Error())
		return
	}

	moved, err := h.store.Move(r.Context(), req.Source, req.Destination)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BoolResponse{Status: "success", Result: moved})
}

// Rename handles POST /api/v1/kv/rename
func (h *KVHandlers) Rename(w http.ResponseWriter, r *http.Request) {
	var req TwoKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Source); err != nil {
		writeError(w, http.StatusBadRequest, "source: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Destination); err != nil {
		writeError(w, http.StatusBadRequest, "destination: "+err.Error())
		return
	}

	if err := h.store.Rename(r.Context(), req.Source, req.Destination); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// Update handles POST /api/v1/kv/update
func (h *KVHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := h.decodePayload(req.ValuePayload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.Update(r.Context(), req.Key, value)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BoolResponse{Status: "success", Result: updated})
}

// GetExpire handles POST /api/v1/kv/get-expire
func (h *KVHandlers) GetExpire(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expiry, ok, err := h.store.GetExpire(r.Context(), req.Key)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	resp := ExpireResponse{Status: "success"}
	if ok {
		resp.ExpiresAt = &expiry
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetExpire handles POST /api/v1/kv/set-expire
func (h *KVHandlers) SetExpire(w http.ResponseWriter, r *http.Request) {
	var req ExpireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateKey(req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ttl, err := requestTTL(req.TTLSeconds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SetExpire(r.Context(), req.Key, ttl); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// Keys handles GET /api/v1/kv/keys?pattern=&page=&page_size=
func (h *KVHandlers) Keys(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "%"
	}
	if err := validation.ValidatePattern(pattern); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pageStr := r.URL.Query().Get("page")
	if pageStr == "" {
		keys, err := h.store.Keys(r.Context(), pattern)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, KeysResponse{Status: "success", Keys: keys})
		return
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page: "+pageStr)
		return
	}
	pageSize := 10
	if sizeStr := r.URL.Query().Get("page_size"); sizeStr != "" {
		pageSize, err = strconv.Atoi(sizeStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page_size: "+sizeStr)
			return
		}
	}
	if err := validation.ValidatePagination(page, pageSize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	keys, err := h.store.Paginate(r.Context(), pattern, page, pageSize)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, KeysResponse{Status: "success", Keys: keys})
}

// Stats handles GET /api/v1/kv/stats
func (h *KVHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	expired, err := h.store.CountExpired(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Status: "success", Count: count, Expired: expired})
}

// Cleanup handles POST /api/v1/kv/cleanup
func (h *KVHandlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	reaped, err := h.store.Cleanup(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CleanupResponse{Status: "success", Reaped: reaped})
}

// Flush handles POST /api/v1/kv/flush
func (h *KVHandlers) Flush(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Flush(r.Context()); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// Vacuum handles POST /api/v1/kv/vacuum
func (h *KVHandlers) Vacuum(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Vacuum(r.Context()); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

// decodePayload converts a request payload into a store value, running
// structured values through the configured schema when present.
func (h *KVHandlers) decodePayload(p ValuePayload) (codec.Value, error) {
	if p.RawBase64 != "" && p.Value != nil {
		return codec.Value{}, fmt.Errorf("value and raw_base64 are mutually exclusive")
	}

	if p.RawBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(p.RawBase64)
		if err != nil {
			return codec.Value{}, fmt.Errorf("invalid raw_base64: %w", err)
		}
		if err := validation.ValidateRawValue(raw); err != nil {
			return codec.Value{}, err
		}
		return codec.Bytes(raw), nil
	}

	if p.Value == nil {
		return codec.Value{}, fmt.Errorf("either value or raw_base64 is required")
	}

	if h.validator != nil {
		var doc interface{}
		if err := json.Unmarshal(p.Value, &doc); err != nil {
			return codec.Value{}, fmt.Errorf("invalid value: %w", err)
		}
		if err := h.validator.Validate(doc); err != nil {
			return codec.Value{}, err
		}
	}

	return jsonToValue(p.Value)
}

// encodePayload converts a store value back into its response payload.
func encodePayload(v codec.Value) (ValuePayload, error) {
	if v.Kind() == codec.KindBytes {
		return ValuePayload{RawBase64: base64.StdEncoding.EncodeToString(v.BytesValue())}, nil
	}
	raw, err := json.Marshal(v.Interface())
	if err != nil {
		return ValuePayload{}, fmt.Errorf("encode value: %w", err)
	}
	return ValuePayload{Value: raw}, nil
}

// jsonToValue decodes arbitrary JSON into the codec's variant type,
// keeping whole numbers as integers.
func jsonToValue(raw json.RawMessage) (codec.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return codec.Value{}, fmt.Errorf("invalid value: %w", err)
	}
	return numberedToValue(doc)
}

func numberedToValue(doc interface{}) (codec.Value, error) {
	switch t := doc.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return codec.Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return codec.Value{}, fmt.Errorf("invalid number %q", t.String())
		}
		return codec.Float(f), nil
	case []interface{}:
		items := make([]codec.Value, len(t))
		for i, item := range t {
			v, err := numberedToValue(item)
			if err != nil {
				return codec.Value{}, err
			}
			items[i] = v
		}
		return codec.List(items...), nil
	case map[string]interface{}:
		m := make(map[string]codec.Value, len(t))
		for k, item := range t {
			v, err := numberedToValue(item)
			if err != nil {
				return codec.Value{}, err
			}
			m[k] = v
		}
		return codec.Map(m), nil
	default:
		return codec.FromInterface(doc)
	}
}

// requestTTL converts a ttl_seconds field into a duration.
func requestTTL(seconds int64) (time.Duration, error) {
	ttl := time.Duration(seconds) * time.Second
	if err := validation.ValidateTTL(ttl); err != nil {
		return 0, err
	}
	return ttl, nil
}

// writeStoreError maps store failures onto HTTP status codes: invalid
// arguments to 400, contention to 503 (retryable), corruption and
// everything else to 500.
func (h *KVHandlers) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case kv.IsInvalidArgument(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case kv.IsContention(err):
		h.log.Warn().Err(err).Msg("Store contention")
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case kv.IsCorrupt(err):
		h.log.Error().Err(err).Msg("Corrupt payload")
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.log.Error().Err(err).Msg("Store operation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, StatusResponse{Status: "error", Message: message})
}
