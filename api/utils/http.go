// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/builtin/reverts"
	"github.com/vechain/stakepool/pool"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

func (e *httpError) Unwrap() error {
	return e.cause
}

// HTTPError create an error with http status code.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

// BadRequest convenience method to create http bad request error.
func BadRequest(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusBadRequest,
	}
}

// NotFound convenience method to create http not found error.
func NotFound(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusNotFound,
	}
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// notFoundKinds are the reverts reporting a missing resource.
var notFoundKinds = map[string]bool{
	"OperatorNotFound":   true,
	"ValidatorNotFound":  true,
	"WithdrawalNotFound": true,
	"MemberNotFound":     true,
}

// StatusOf maps err to the status it is responded with. Reverts are bad requests,
// unless they report a missing resource.
func StatusOf(err error) int {
	var he *httpError
	if errors.As(err, &he) {
		return he.status
	}
	if kind := reverts.KindOf(err); kind != "" {
		if notFoundKinds[kind] {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// HandlerFunc like http.HandlerFunc, but it returns an error.
// The error is responded as JSON with the status from StatusOf.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc convert HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		status := StatusOf(err)
		body := ErrorResponse{Error: err.Error(), Kind: reverts.KindOf(err)}
		if status == http.StatusInternalServerError {
			// internal errors are not leaked
			logger.Warn("request failed", "uri", r.URL.String(), "err", err)
			body = ErrorResponse{Error: http.StatusText(status)}
		}
		w.Header().Set("Content-Type", JSONContentType)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON response an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// M shortcut for type map[string]any.
type M map[string]any

// AddressVar parses the address in the named path variable.
func AddressVar(req *http.Request, name string) (pool.Address, error) {
	addr, err := pool.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return pool.Address{}, BadRequest(errors.New(name + ": " + err.Error()))
	}
	return addr, nil
}

// Uint64Var parses the unsigned integer in the named path variable.
func Uint64Var(req *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(mux.Vars(req)[name], 0, 64)
	if err != nil {
		return 0, BadRequest(errors.New(name + ": " + err.Error()))
	}
	return v, nil
}

// BigInt returns v as a big.Int, nil when v is nil.
func BigInt(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return nil
	}
	return (*big.Int)(v)
}

// RequireBigInt is BigInt failing with a bad request when the named field is absent.
func RequireBigInt(name string, v *math.HexOrDecimal256) (*big.Int, error) {
	if v == nil {
		return nil, BadRequest(errors.New(name + ": missing"))
	}
	return (*big.Int)(v), nil
}

// Hex returns v for JSON output as a hex quantity.
func Hex(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

// ParseBody decodes the JSON request body into v, answering bad request on failure.
func ParseBody(req *http.Request, v any) error {
	if err := ParseJSON(req.Body, v); err != nil {
		return BadRequest(errors.New("body: " + err.Error()))
	}
	return nil
}
