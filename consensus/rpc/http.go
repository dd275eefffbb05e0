package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	consensuscore "github.com/axonweb3/relayer/consensus/consensus_core"
)

// httpConsensusRpc talks to a single beacon-node light-client REST API, as
// laid out in SPEC_FULL.md §4.2.1: {base}/eth/v1/beacon/light_client/*.
type httpConsensusRpc struct {
	base   string
	client *http.Client
}

// NewHTTPConsensusRpc returns a ConsensusRpc backed by a single beacon
// node's light-client REST endpoints.
func NewHTTPConsensusRpc(base string) ConsensusRpc {
	return &httpConsensusRpc{
		base:   base,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *httpConsensusRpc) GetBootstrap(blockRoot consensuscore.Bytes32) (consensuscore.Bootstrap, error) {
	var env envelope[wireBootstrap]
	url := fmt.Sprintf("%s/eth/v1/beacon/light_client/bootstrap/%s", r.base, hexutil.Encode(blockRoot[:]))
	if err := r.getJSON(url, &env); err != nil {
		return consensuscore.Bootstrap{}, err
	}
	return env.Data.toCore()
}

func (r *httpConsensusRpc) GetUpdates(period uint64, count uint8) ([]consensuscore.Update, error) {
	url := fmt.Sprintf("%s/eth/v1/beacon/light_client/updates?start_period=%d&count=%d", r.base, period, count)
	var raw []envelope[wireUpdate]
	if err := r.getJSON(url, &raw); err != nil {
		return nil, err
	}
	updates := make([]consensuscore.Update, 0, len(raw))
	for _, item := range raw {
		u, err := item.Data.toCore()
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}

func (r *httpConsensusRpc) GetFinalityUpdate() (consensuscore.FinalityUpdate, error) {
	var env envelope[wireFinalityUpdate]
	url := fmt.Sprintf("%s/eth/v1/beacon/light_client/finality_update", r.base)
	if err := r.getJSON(url, &env); err != nil {
		return consensuscore.FinalityUpdate{}, err
	}
	return env.Data.toCore()
}

func (r *httpConsensusRpc) GetHeader(slot uint64) (*consensuscore.Header, error) {
	var env envelope[wireHeader]
	url := fmt.Sprintf("%s/eth/v1/beacon/light_client/headers/%d", r.base, slot)
	status, err := r.getJSONStatus(url, &env)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	header, err := env.Data.toCore()
	if err != nil {
		return nil, err
	}
	return &header, nil
}

func (r *httpConsensusRpc) getJSON(url string, out interface{}) error {
	_, err := r.getJSONStatus(url, out)
	return err
}

func (r *httpConsensusRpc) getJSONStatus(url string, out interface{}) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var status int
	err := withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errors.Wrap(err, "build request")
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return errors.Wrap(err, "do request")
		}
		defer resp.Body.Close()
		status = resp.StatusCode
		if resp.StatusCode == http.StatusNotFound {
			return nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return errors.Wrapf(errTransient, "unexpected status %d from %s", resp.StatusCode, url)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decode response")
		}
		return nil
	})
	return status, err
}

// envelope is the standard beacon REST response wrapper: {"version":
// "...", "data": {...}}.
type envelope[T any] struct {
	Version string `json:"version"`
	Data    T      `json:"data"`
}

type wireHeader struct {
	Slot          string `json:"slot"`
	ProposerIndex string `json:"proposer_index"`
	ParentRoot    string `json:"parent_root"`
	StateRoot     string `json:"state_root"`
	BodyRoot      string `json:"body_root"`
}

func (w wireHeader) toCore() (consensuscore.Header, error) {
	slot, err := strconv.ParseUint(w.Slot, 10, 64)
	if err != nil {
		return consensuscore.Header{}, errors.Wrap(err, "decode slot")
	}
	proposerIndex, err := strconv.ParseUint(w.ProposerIndex, 10, 64)
	if err != nil {
		return consensuscore.Header{}, errors.Wrap(err, "decode proposer_index")
	}
	parentRoot, err := decodeRoot(w.ParentRoot)
	if err != nil {
		return consensuscore.Header{}, errors.Wrap(err, "decode parent_root")
	}
	stateRoot, err := decodeRoot(w.StateRoot)
	if err != nil {
		return consensuscore.Header{}, errors.Wrap(err, "decode state_root")
	}
	bodyRoot, err := decodeRoot(w.BodyRoot)
	if err != nil {
		return consensuscore.Header{}, errors.Wrap(err, "decode body_root")
	}
	return consensuscore.Header{
		Slot:          slot,
		ProposerIndex: proposerIndex,
		ParentRoot:    parentRoot,
		StateRoot:     stateRoot,
		BodyRoot:      bodyRoot,
	}, nil
}

type wireSyncCommittee struct {
	Pubkeys         []string `json:"pubkeys"`
	AggregatePubkey string   `json:"aggregate_pubkey"`
}

func (w wireSyncCommittee) toCore() (consensuscore.SyncCommittee, error) {
	var committee consensuscore.SyncCommittee
	if len(w.Pubkeys) != consensuscore.SyncCommitteeSize {
		return committee, errors.Errorf("expected %d pubkeys, got %d", consensuscore.SyncCommitteeSize, len(w.Pubkeys))
	}
	for i, pk := range w.Pubkeys {
		decoded, err := decodePubkey(pk)
		if err != nil {
			return committee, errors.Wrapf(err, "decode pubkey %d", i)
		}
		committee.Pubkeys[i] = decoded
	}
	aggregate, err := decodePubkey(w.AggregatePubkey)
	if err != nil {
		return committee, errors.Wrap(err, "decode aggregate_pubkey")
	}
	committee.AggregatePubkey = aggregate
	return committee, nil
}

type wireSyncAggregate struct {
	SyncCommitteeBits      string `json:"sync_committee_bits"`
	SyncCommitteeSignature string `json:"sync_committee_signature"`
}

func (w wireSyncAggregate) toCore() (consensuscore.SyncAggregate, error) {
	var aggregate consensuscore.SyncAggregate
	bits, err := hexutil.Decode(w.SyncCommitteeBits)
	if err != nil {
		return aggregate, errors.Wrap(err, "decode sync_committee_bits")
	}
	if len(bits) != len(aggregate.SyncCommitteeBits) {
		return aggregate, errors.Errorf("expected %d-byte bitvector, got %d", len(aggregate.SyncCommitteeBits), len(bits))
	}
	copy(aggregate.SyncCommitteeBits[:], bits)
	sig, err := hexutil.Decode(w.SyncCommitteeSignature)
	if err != nil {
		return aggregate, errors.Wrap(err, "decode sync_committee_signature")
	}
	if len(sig) != len(aggregate.SyncCommitteeSignature) {
		return aggregate, errors.Errorf("expected %d-byte signature, got %d", len(aggregate.SyncCommitteeSignature), len(sig))
	}
	copy(aggregate.SyncCommitteeSignature[:], sig)
	return aggregate, nil
}

type wireBootstrap struct {
	Header                     wireHeader        `json:"header"`
	CurrentSyncCommittee       wireSyncCommittee `json:"current_sync_committee"`
	CurrentSyncCommitteeBranch []string          `json:"current_sync_committee_branch"`
}

func (w wireBootstrap) toCore() (consensuscore.Bootstrap, error) {
	header, err := w.Header.toCore()
	if err != nil {
		return consensuscore.Bootstrap{}, err
	}
	committee, err := w.CurrentSyncCommittee.toCore()
	if err != nil {
		return consensuscore.Bootstrap{}, err
	}
	branch, err := decodeRoots(w.CurrentSyncCommitteeBranch)
	if err != nil {
		return consensuscore.Bootstrap{}, errors.Wrap(err, "decode current_sync_committee_branch")
	}
	return consensuscore.Bootstrap{
		Header:                     header,
		CurrentSyncCommittee:       committee,
		CurrentSyncCommitteeBranch: branch,
	}, nil
}

type wireUpdate struct {
	AttestedHeader          wireHeader        `json:"attested_header"`
	NextSyncCommittee       wireSyncCommittee `json:"next_sync_committee"`
	NextSyncCommitteeBranch []string          `json:"next_sync_committee_branch"`
	FinalizedHeader         wireHeader        `json:"finalized_header"`
	FinalityBranch          []string          `json:"finality_branch"`
	SyncAggregate           wireSyncAggregate `json:"sync_aggregate"`
	SignatureSlot           string            `json:"signature_slot"`
}

func (w wireUpdate) toCore() (consensuscore.Update, error) {
	attested, err := w.AttestedHeader.toCore()
	if err != nil {
		return consensuscore.Update{}, errors.Wrap(err, "decode attested_header")
	}
	nextCommittee, err := w.NextSyncCommittee.toCore()
	if err != nil {
		return consensuscore.Update{}, errors.Wrap(err, "decode next_sync_committee")
	}
	nextBranch, err := decodeRoots(w.NextSyncCommitteeBranch)
	if err != nil {
		return consensuscore.Update{}, errors.Wrap(err, "decode next_sync_committee_branch")
	}
	finalized, err := w.FinalizedHeader.toCore()
	if err != nil {
		return consensuscore.Update{}, errors.Wrap(err, "decode finalized_header")
	}
	finalityBranch, err := decodeRoots(w.FinalityBranch)
	if err != nil {
		return consensuscore.Update{}, errors.Wrap(err, "decode finality_branch")
	}
	aggregate, err := w.SyncAggregate.toCore()
	if err != nil {
		return consensuscore.Update{}, err
	}
	sigSlot, err := strconv.ParseUint(w.SignatureSlot, 10, 64)
	if err != nil {
		return consensuscore.Update{}, errors.Wrap(err, "decode signature_slot")
	}
	return consensuscore.Update{
		AttestedHeader:          attested,
		NextSyncCommittee:       nextCommittee,
		NextSyncCommitteeBranch: nextBranch,
		FinalizedHeader:         finalized,
		FinalityBranch:          finalityBranch,
		SyncAggregate:           aggregate,
		SignatureSlot:           sigSlot,
	}, nil
}

type wireFinalityUpdate struct {
	AttestedHeader  wireHeader        `json:"attested_header"`
	FinalizedHeader wireHeader        `json:"finalized_header"`
	FinalityBranch  []string          `json:"finality_branch"`
	SyncAggregate   wireSyncAggregate `json:"sync_aggregate"`
	SignatureSlot   string            `json:"signature_slot"`
}

func (w wireFinalityUpdate) toCore() (consensuscore.FinalityUpdate, error) {
	attested, err := w.AttestedHeader.toCore()
	if err != nil {
		return consensuscore.FinalityUpdate{}, errors.Wrap(err, "decode attested_header")
	}
	finalized, err := w.FinalizedHeader.toCore()
	if err != nil {
		return consensuscore.FinalityUpdate{}, errors.Wrap(err, "decode finalized_header")
	}
	finalityBranch, err := decodeRoots(w.FinalityBranch)
	if err != nil {
		return consensuscore.FinalityUpdate{}, errors.Wrap(err, "decode finality_branch")
	}
	aggregate, err := w.SyncAggregate.toCore()
	if err != nil {
		return consensuscore.FinalityUpdate{}, err
	}
	sigSlot, err := strconv.ParseUint(w.SignatureSlot, 10, 64)
	if err != nil {
		return consensuscore.FinalityUpdate{}, errors.Wrap(err, "decode signature_slot")
	}
	return consensuscore.FinalityUpdate{
		AttestedHeader:  attested,
		FinalizedHeader: finalized,
		FinalityBranch:  finalityBranch,
		SyncAggregate:   aggregate,
		SignatureSlot:   sigSlot,
	}, nil
}

func decodeRoot(s string) (consensuscore.Bytes32, error) {
	var root consensuscore.Bytes32
	b, err := hexutil.Decode(s)
	if err != nil {
		return root, err
	}
	if len(b) != len(root) {
		return root, errors.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(root[:], b)
	return root, nil
}

func decodeRoots(ss []string) ([]consensuscore.Bytes32, error) {
	roots := make([]consensuscore.Bytes32, len(ss))
	for i, s := range ss {
		root, err := decodeRoot(s)
		if err != nil {
			return nil, err
		}
		roots[i] = root
	}
	return roots, nil
}

func decodePubkey(s string) (consensuscore.BLSPubKey, error) {
	var pk consensuscore.BLSPubKey
	b, err := hexutil.Decode(s)
	if err != nil {
		return pk, err
	}
	if len(b) != len(pk) {
		return pk, errors.Errorf("expected %d bytes, got %d", len(pk), len(b))
	}
	copy(pk[:], b)
	return pk, nil
}
