package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/manual/internal/archive"
	"github.com/emrgen/manual/internal/cache"
	"github.com/emrgen/manual/internal/model"
	"github.com/emrgen/manual/internal/queue"
	"github.com/emrgen/manual/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UploadDirPrefix prefixes every temporary directory an archive is unpacked into.
const UploadDirPrefix = "manual-upload-"

// NewManualService creates a new ManualService.
func NewManualService(store store.Store, cache *cache.TreeCache, queue queue.ManualQueue, retainer archive.Retainer, uploadDir string) *ManualService {
	return &ManualService{
		store:     store,
		cache:     cache,
		queue:     queue,
		retainer:  retainer,
		uploadDir: uploadDir,
	}
}

// ManualService manages manual hierarchies.
type ManualService struct {
	store     store.Store
	cache     *cache.TreeCache
	queue     queue.ManualQueue
	retainer  archive.Retainer
	uploadDir string
}

// BuildTree lists the manuals of a group as a forest. An empty group code lists every manual.
func (s *ManualService) BuildTree(ctx context.Context, groupCode string, expand bool) ([]*model.ManualNode, error) {
	forest, err := s.cache.GetTree(ctx, groupCode, expand)
	if err != nil {
		logrus.Warnf("manual tree cache read failed for group %q: %v", groupCode, err)
	}
	if forest != nil {
		return forest, nil
	}

	generation := s.cache.Generation(groupCode)
	manuals, err := s.store.ListManuals(ctx, groupCode)
	if err != nil {
		return nil, err
	}

	forest = BuildForest(manuals, expand)
	if stored, err := s.cache.SetTree(ctx, groupCode, expand, generation, forest); err != nil {
		logrus.Warnf("manual tree cache write failed for group %q: %v", groupCode, err)
	} else if !stored {
		logrus.Debugf("manual tree of group %q changed while building, not cached", groupCode)
	}

	return forest, nil
}

// ImportArchive unpacks a zip archive and stores its directory tree as manuals of the group.
// Nothing is stored unless the whole archive imports.
func (s *ManualService) ImportArchive(ctx context.Context, r io.ReaderAt, size int64, groupCode string) error {
	dir, err := os.MkdirTemp(s.uploadDir, UploadDirPrefix+strconv.FormatInt(time.Now().UnixNano(), 10)+"-")
	if err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logrus.Warnf("failed to remove upload dir %s: %v", dir, err)
		}
	}()

	if err := archive.Unpack(r, size, dir); err != nil {
		return fmt.Errorf("unpack archive: %w", err)
	}

	var ids []uint64
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		return s.importDir(ctx, tx, dir, 0, nil, groupCode, &ids)
	})
	if err != nil {
		return err
	}

	logrus.Infof("imported %d manuals into group %q", len(ids), groupCode)

	if key, err := s.retainer.Retain(ctx, groupCode, io.NewSectionReader(r, 0, size), size); err != nil {
		logrus.Warnf("failed to retain archive for group %q: %v", groupCode, err)
	} else if key != "" {
		logrus.Infof("retained archive for group %q at %s", groupCode, key)
	}

	s.afterCommit(ctx, queue.ManualsImported, []string{groupCode}, ids)

	return nil
}

func (s *ManualService) importDir(ctx context.Context, tx store.Store, dir string, level int, parentID *uint64, groupCode string, ids *[]uint64) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	sort := 0
	for _, entry := range entries {
		if !isValidEntryName(entry.Name()) {
			continue
		}

		manual := &model.Manual{
			Name:      entry.Name(),
			GroupCode: groupCode,
			Level:     level,
			Sort:      sort,
			ParentID:  parentID,
			Key:       uuid.New().String(),
		}
		sort++

		if err := tx.SaveManual(ctx, manual); err != nil {
			return err
		}
		*ids = append(*ids, manual.ID)

		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			id := manual.ID
			if err := s.importDir(ctx, tx, path, level+1, &id, groupCode, ids); err != nil {
				return err
			}
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read file %s: %w", path, err)
		}

		content, err := decodeText(data, false)
		if err != nil {
			return err
		}

		manual.Content = &content
		if err := tx.SaveManual(ctx, manual); err != nil {
			return err
		}
	}

	return nil
}

// isValidEntryName skips hidden files and archiver artifacts such as __MACOSX.
func isValidEntryName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && !strings.HasPrefix(name, "__")
}

// SaveOrDelete saves the edited forest and deletes the listed manuals in one transaction.
func (s *ManualService) SaveOrDelete(ctx context.Context, edited []*model.ManualNode, deleted []*model.ManualNode) error {
	groups := mapset.NewSet[string]()
	savedIDs := mapset.NewSet[uint64]()
	deletedIDs := mapset.NewSet[uint64]()

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := s.process(ctx, tx, edited, groups, savedIDs); err != nil {
			return err
		}

		return s.deleteManuals(ctx, tx, deleted, groups, deletedIDs)
	})
	if err != nil {
		return err
	}

	if savedIDs.Cardinality() > 0 {
		s.afterCommit(ctx, queue.ManualsSaved, groups.ToSlice(), savedIDs.ToSlice())
	}
	if deletedIDs.Cardinality() > 0 {
		s.afterCommit(ctx, queue.ManualsDeleted, groups.ToSlice(), deletedIDs.ToSlice())
	}

	return nil
}

func (s *ManualService) process(ctx context.Context, tx store.Store, nodes []*model.ManualNode, groups mapset.Set[string], ids mapset.Set[uint64]) error {
	for _, node := range nodes {
		if node == nil {
			return fmt.Errorf("%w: empty node", ErrInvalidManual)
		}
		if node.Level == 0 {
			node.ParentID = nil
		}
	}

	for _, node := range nodes {
		if err := s.saveNode(ctx, tx, node, groups); err != nil {
			return err
		}
		ids.Add(node.ID)
	}

	for _, node := range nodes {
		if !node.HasChildren() {
			continue
		}

		for _, child := range node.Children {
			if child == nil {
				continue
			}
			id := node.ID
			child.ParentID = &id
		}

		if err := s.process(ctx, tx, node.Children, groups, ids); err != nil {
			return err
		}
	}

	return nil
}

// saveNode persists a submitted node, keeping the stored key and content of existing manuals.
func (s *ManualService) saveNode(ctx context.Context, tx store.Store, node *model.ManualNode, groups mapset.Set[string]) error {
	if node.IsNew() {
		if node.Key == "" {
			node.Key = uuid.New().String()
		}
	} else {
		exist, err := tx.GetManual(ctx, node.ID)
		if err != nil {
			return fmt.Errorf("manual %d: %w", node.ID, err)
		}

		node.Key = exist.Key
		node.Content = exist.Content
		node.CreatedAt = exist.CreatedAt
		groups.Add(exist.GroupCode)
	}

	if err := tx.SaveManual(ctx, &node.Manual); err != nil {
		return err
	}
	groups.Add(node.GroupCode)

	return nil
}

// deleteManuals removes the listed manuals first and then their listed children.
// Cached trees are dropped for the groups the rows are stored under, whatever group the client sent.
func (s *ManualService) deleteManuals(ctx context.Context, tx store.Store, nodes []*model.ManualNode, groups mapset.Set[string], deleted mapset.Set[uint64]) error {
	candidates := mapset.NewThreadUnsafeSet[uint64]()
	for _, node := range nodes {
		if node == nil || node.IsNew() || deleted.Contains(node.ID) {
			continue
		}
		candidates.Add(node.ID)
	}

	if candidates.Cardinality() > 0 {
		stored, err := tx.ListManualsByIDs(ctx, candidates.ToSlice())
		if err != nil {
			return err
		}

		ids := make([]uint64, 0, len(stored))
		for _, manual := range stored {
			ids = append(ids, manual.ID)
			deleted.Add(manual.ID)
			groups.Add(manual.GroupCode)
		}

		if err := tx.DeleteManuals(ctx, ids); err != nil {
			return err
		}
	}

	for _, node := range nodes {
		if node == nil || !node.HasChildren() {
			continue
		}
		if err := s.deleteManuals(ctx, tx, node.Children, groups, deleted); err != nil {
			return err
		}
	}

	return nil
}

// ReplaceContent replaces the content of a manual with the text of an uploaded file.
// An upload that cannot be read as UTF-8 leaves the manual unchanged and is not reported as an error.
func (s *ManualService) ReplaceContent(ctx context.Context, id uint64, upload Upload) (*model.Manual, error) {
	var manual *model.Manual
	replaced := false

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		manual, err = tx.GetManual(ctx, id)
		if err != nil {
			return err
		}

		content, err := readUpload(upload)
		if err != nil {
			logrus.Warnf("ignoring unreadable upload for manual %d: %v", id, err)
			return nil
		}

		manual.Content = &content
		replaced = true

		return tx.SaveManual(ctx, manual)
	})
	if err != nil {
		return nil, err
	}

	if replaced {
		s.afterCommit(ctx, queue.ManualContentReplaced, []string{manual.GroupCode}, []uint64{manual.ID})
	}

	return manual, nil
}

// afterCommit drops stale cached trees and announces the change.
func (s *ManualService) afterCommit(ctx context.Context, kind queue.EventKind, groupCodes []string, ids []uint64) {
	if err := s.cache.Invalidate(ctx, groupCodes...); err != nil {
		logrus.Warnf("manual tree cache invalidation failed for groups %v: %v", groupCodes, err)
	}

	if err := s.queue.Publish(ctx, queue.NewManualEvent(kind, groupCodes, ids)); err != nil {
		logrus.Warnf("failed to publish %s event: %v", kind, err)
	}
}
