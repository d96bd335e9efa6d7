// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispatch_test

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omahs/chainhook/chainmodel"
	"github.com/omahs/chainhook/dispatch"
	"github.com/omahs/chainhook/predicate"
)

func trigger() chainmodel.Trigger {
	tx := &chainmodel.Transaction{
		Identifier: chainmodel.TransactionIdentifier{Hash: "a"},
		Metadata: chainmodel.TransactionMetadata{
			Fee:    100,
			Inputs: []chainmodel.TxIn{{Witness: []string{"w"}}},
		},
	}
	blk := &chainmodel.Block{Identifier: chainmodel.BlockIdentifier{Index: 1, Hash: "h"}}
	return chainmodel.Trigger{
		PredicateUUID: "X",
		Apply:         []chainmodel.BlockHits{{Transactions: []*chainmodel.Transaction{tx}, Block: blk}},
	}
}

func TestBuild_HTTPPost(t *testing.T) {
	inst := &predicate.Instance{
		UUID:   "X",
		Action: predicate.Action{HTTPPost: &predicate.HTTPPostAction{URL: "http://example.test/hook", AuthorizationHeader: "Bearer t"}},
	}
	out, err := dispatch.Build(context.Background(), trigger(), inst, true, nil)
	require.NoError(t, err)
	require.NotNil(t, out.HTTPRequest)
	assert.Equal(t, "application/json", out.HTTPRequest.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer t", out.HTTPRequest.Header.Get("Authorization"))
	assert.Len(t, out.Payload.Apply, 1)
	assert.Empty(t, out.Payload.Apply[0].Transactions[0].Metadata.Inputs)

	body, err := io.ReadAll(out.HTTPRequest.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Contains(t, decoded, "chainhook")
}

func TestBuild_FileAppend(t *testing.T) {
	inst := &predicate.Instance{
		UUID:          "X",
		IncludeInputs: true,
		Action:        predicate.Action{FileAppend: &predicate.FileAppendAction{Path: "/tmp/out.jsonl"}},
	}
	out, err := dispatch.Build(context.Background(), trigger(), inst, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.jsonl", out.FilePath)
	assert.NotEmpty(t, out.FileBytes)
	assert.Len(t, out.Payload.Apply[0].Transactions[0].Metadata.Inputs, 1)
	assert.Empty(t, out.Payload.Apply[0].Transactions[0].Metadata.Inputs[0].Witness)
}

func TestBuild_Noop(t *testing.T) {
	inst := &predicate.Instance{UUID: "X", Action: predicate.Action{Noop: true}}
	out, err := dispatch.Build(context.Background(), trigger(), inst, false, map[string]string{"a": "proofbytes"})
	require.NoError(t, err)
	assert.Nil(t, out.HTTPRequest)
	assert.Empty(t, out.FilePath)
	assert.Equal(t, "X", out.Payload.Chainhook.UUID)
}

func TestSend_FileAppendWritesPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	inst := &predicate.Instance{UUID: "X", Action: predicate.Action{FileAppend: &predicate.FileAppendAction{Path: path}}}

	out, err := dispatch.Build(context.Background(), trigger(), inst, false, nil)
	require.NoError(t, err)

	dispatch.Send(http.DefaultClient, out)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"chainhook"`)
}

func TestBuild_ProofLookupRequiresIncludeProof(t *testing.T) {
	inst := &predicate.Instance{UUID: "X", IncludeProof: true, Action: predicate.Action{Noop: true}}
	out, err := dispatch.Build(context.Background(), trigger(), inst, false, map[string]string{"a": "proofbytes"})
	require.NoError(t, err)
	require.NotNil(t, out.Payload.Apply[0].Transactions[0].Metadata.Proof)
	assert.Equal(t, "proofbytes", *out.Payload.Apply[0].Transactions[0].Metadata.Proof)
}
