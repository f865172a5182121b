package v1

import (
	"errors"

	"github.com/emrgen/manual/internal/model"
)

var (
	ErrMissingArchive  = errors.New("archive is required")
	ErrMissingManualID = errors.New("manual id is required")
	ErrNilManual       = errors.New("manual list contains an empty entry")
)

type ListManualTreeRequest struct {
	GroupCode string `json:"groupCode"`
	// Expand defaults to true when unset.
	Expand *bool `json:"expand,omitempty"`
}

func (r *ListManualTreeRequest) GetExpand() bool {
	if r.Expand == nil {
		return true
	}
	return *r.Expand
}

type ListManualTreeResponse struct {
	Manuals []*model.ManualNode `json:"manuals"`
}

type ImportManualArchiveRequest struct {
	GroupCode string `json:"groupCode"`
	Archive   []byte `json:"archive"`
}

func (r *ImportManualArchiveRequest) Validate() error {
	if len(r.Archive) == 0 {
		return ErrMissingArchive
	}
	return nil
}

type ImportManualArchiveResponse struct{}

type SaveManualsRequest struct {
	List        []*model.ManualNode `json:"list"`
	DeletedList []*model.ManualNode `json:"deletedList"`
}

func (r *SaveManualsRequest) Validate() error {
	if hasNilNode(r.List) || hasNilNode(r.DeletedList) {
		return ErrNilManual
	}
	return nil
}

func hasNilNode(nodes []*model.ManualNode) bool {
	for _, node := range nodes {
		if node == nil || hasNilNode(node.Children) {
			return true
		}
	}
	return false
}

type SaveManualsResponse struct{}

type ReplaceManualContentRequest struct {
	ManualId uint64 `json:"manualId"`
	Content  []byte `json:"content"`
}

func (r *ReplaceManualContentRequest) Validate() error {
	if r.ManualId == 0 {
		return ErrMissingManualID
	}
	return nil
}

type ReplaceManualContentResponse struct {
	Manual *model.Manual `json:"manual"`
}
