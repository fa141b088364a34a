// Package index implements a unique-key B+Tree over buffer pool pages.
// Nodes live in page frames and reference each other by page id only;
// every fetch is paired with exactly one unpin, including on the split and
// coalesce recursion paths.
package index

import (
	"github.com/zhukovaskychina/xmysql-storage/storage/basic"
	"github.com/zhukovaskychina/xmysql-storage/storage/buffer_pool"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/storage/pages"
)

// BPlusTree is a paged B+Tree index with unique keys. Keys are fixed-width
// via the codec; leaf values are record ids.
type BPlusTree[K any] struct {
	indexName  string
	rootPageID common.PageID

	pool  *buffer_pool.BufferPoolManager
	codec basic.KeyCodec[K]
	cmp   basic.Comparator[K]

	// Capacity overrides; zero means derive from the page geometry.
	leafMaxSize     int
	internalMaxSize int
}

// NewBPlusTree creates an index handle. rootPageID is the persisted root
// from the header page, or InvalidPageID for an empty index.
func NewBPlusTree[K any](name string, pool *buffer_pool.BufferPoolManager,
	codec basic.KeyCodec[K], cmp basic.Comparator[K], rootPageID common.PageID) *BPlusTree[K] {
	return &BPlusTree[K]{
		indexName:  name,
		rootPageID: rootPageID,
		pool:       pool,
		codec:      codec,
		cmp:        cmp,
	}
}

// SetNodeCapacity overrides the derived node capacities. Small capacities
// force deep trees out of few keys; zero keeps the page-derived value.
func (t *BPlusTree[K]) SetNodeCapacity(leafMax, internalMax int) {
	t.leafMaxSize = leafMax
	t.internalMaxSize = internalMax
}

// Name returns the index name recorded in the header page.
func (t *BPlusTree[K]) Name() string {
	return t.indexName
}

// RootPageID returns the current root page id, InvalidPageID when empty.
func (t *BPlusTree[K]) RootPageID() common.PageID {
	return t.rootPageID
}

// IsEmpty reports whether the index holds no keys.
func (t *BPlusTree[K]) IsEmpty() bool {
	return !t.rootPageID.IsValid()
}

func (t *BPlusTree[K]) leafView(p *buffer_pool.Page) pages.BPlusTreeLeafPage[K] {
	return pages.LeafView[K](p, t.codec)
}

func (t *BPlusTree[K]) internalView(p *buffer_pool.Page) pages.BPlusTreeInternalPage[K] {
	return pages.InternalView[K](p, t.codec)
}

func (t *BPlusTree[K]) initLeaf(p *buffer_pool.Page, parentID common.PageID) pages.BPlusTreeLeafPage[K] {
	leaf := t.leafView(p)
	leaf.Init(p.ID(), parentID)
	if t.leafMaxSize > 0 {
		leaf.SetMaxSize(t.leafMaxSize)
	}
	return leaf
}

func (t *BPlusTree[K]) initInternal(p *buffer_pool.Page, parentID common.PageID) pages.BPlusTreeInternalPage[K] {
	node := t.internalView(p)
	node.Init(p.ID(), parentID)
	if t.internalMaxSize > 0 {
		node.SetMaxSize(t.internalMaxSize)
	}
	return node
}

/*****************************************************************************
 * SEARCH
 *****************************************************************************/

// GetValue returns the record id stored under the key.
func (t *BPlusTree[K]) GetValue(key K, txn *basic.Transaction) (common.RID, bool, error) {
	if t.IsEmpty() {
		return common.RID{}, false, nil
	}
	leafPage, err := t.findLeafPage(key, false)
	if err != nil {
		return common.RID{}, false, err
	}
	rid, ok := t.leafView(leafPage).Lookup(key, t.cmp)
	t.pool.UnpinPage(leafPage.ID(), false)
	return rid, ok, nil
}

// findLeafPage descends from the root to the leaf covering the key and
// returns it pinned. Internal nodes along the path are unpinned on the way
// down. With leftMost set the descent always takes child 0.
func (t *BPlusTree[K]) findLeafPage(key K, leftMost bool) (*buffer_pool.Page, error) {
	pageID := t.rootPageID
	page, err := t.pool.FetchPage(pageID)
	if err != nil {
		return nil, basic.NewError("bplustree: find leaf", err)
	}
	for !pages.View(page).IsLeafPage() {
		node := t.internalView(page)
		var next common.PageID
		if leftMost {
			next = node.ValueAt(0)
		} else {
			next = node.Lookup(key, t.cmp)
		}
		t.pool.UnpinPage(pageID, false)
		pageID = next
		if page, err = t.pool.FetchPage(pageID); err != nil {
			return nil, basic.NewError("bplustree: find leaf", err)
		}
	}
	return page, nil
}

/*****************************************************************************
 * INSERTION
 *****************************************************************************/

// Insert adds the key/record pair. It reports false without error when the
// key already exists; keys are unique.
func (t *BPlusTree[K]) Insert(key K, rid common.RID, txn *basic.Transaction) (bool, error) {
	if t.IsEmpty() {
		if err := t.startNewTree(key, rid); err != nil {
			return false, err
		}
		return true, nil
	}
	return t.insertIntoLeaf(key, rid)
}

// startNewTree allocates the root leaf for the first key.
func (t *BPlusTree[K]) startNewTree(key K, rid common.RID) error {
	p, err := t.pool.NewPage()
	if err != nil {
		return basic.NewError("bplustree: start new tree", err)
	}
	leaf := t.initLeaf(p, common.InvalidPageID)
	leaf.Insert(key, rid, t.cmp)
	t.rootPageID = p.ID()
	err = t.updateRootPageID()
	t.pool.UnpinPage(p.ID(), true)
	return err
}

func (t *BPlusTree[K]) insertIntoLeaf(key K, rid common.RID) (bool, error) {
	leafPage, err := t.findLeafPage(key, false)
	if err != nil {
		return false, err
	}
	leaf := t.leafView(leafPage)
	if _, ok := leaf.Lookup(key, t.cmp); ok {
		t.pool.UnpinPage(leafPage.ID(), false)
		return false, nil
	}
	if leaf.Insert(key, rid, t.cmp) > leaf.GetMaxSize() {
		newPage, sepKey, err := t.splitLeaf(leafPage)
		if err == nil {
			err = t.insertIntoParent(leafPage, sepKey, newPage)
		}
		if err != nil {
			t.pool.UnpinPage(leafPage.ID(), true)
			return false, err
		}
	}
	t.pool.UnpinPage(leafPage.ID(), true)
	return true, nil
}

// splitLeaf moves the upper half of the overflowing leaf into a fresh
// right sibling and returns it pinned together with the separator key: the
// first key of the new sibling.
func (t *BPlusTree[K]) splitLeaf(leafPage *buffer_pool.Page) (*buffer_pool.Page, K, error) {
	var zero K
	newPage, err := t.pool.NewPage()
	if err != nil {
		return nil, zero, basic.NewError("bplustree: split leaf", err)
	}
	old := t.leafView(leafPage)
	right := t.initLeaf(newPage, old.ParentPageID())
	right.SetMaxSize(old.GetMaxSize())
	if err := old.MoveHalfTo(right, t.pool); err != nil {
		t.pool.UnpinPage(newPage.ID(), true)
		return nil, zero, err
	}
	return newPage, right.KeyAt(0), nil
}

// splitInternal moves the upper half of the overflowing internal node into
// a fresh right sibling. The separator pushed up is the first key of the
// moved block, captured before the move.
func (t *BPlusTree[K]) splitInternal(nodePage *buffer_pool.Page) (*buffer_pool.Page, K, error) {
	var zero K
	old := t.internalView(nodePage)
	sepKey := old.KeyAt((old.GetMaxSize() + 1) / 2)

	newPage, err := t.pool.NewPage()
	if err != nil {
		return nil, zero, basic.NewError("bplustree: split internal", err)
	}
	right := t.initInternal(newPage, old.ParentPageID())
	right.SetMaxSize(old.GetMaxSize())
	if err := old.MoveHalfTo(right, t.pool); err != nil {
		t.pool.UnpinPage(newPage.ID(), true)
		return nil, zero, err
	}
	return newPage, sepKey, nil
}

// insertIntoParent links a freshly split-off node into the tree,
// recursively splitting ancestors that overflow. It consumes newPage's
// pin; oldPage stays pinned for the caller.
func (t *BPlusTree[K]) insertIntoParent(oldPage *buffer_pool.Page, sepKey K, newPage *buffer_pool.Page) error {
	old := pages.View(oldPage)
	if old.IsRootPage() {
		rootPage, err := t.pool.NewPage()
		if err != nil {
			t.pool.UnpinPage(newPage.ID(), true)
			return basic.NewError("bplustree: grow root", err)
		}
		root := t.initInternal(rootPage, common.InvalidPageID)
		root.PopulateNewRoot(oldPage.ID(), sepKey, newPage.ID())
		old.SetParentPageID(rootPage.ID())
		pages.View(newPage).SetParentPageID(rootPage.ID())
		t.rootPageID = rootPage.ID()
		err = t.updateRootPageID()
		t.pool.UnpinPage(rootPage.ID(), true)
		t.pool.UnpinPage(newPage.ID(), true)
		return err
	}

	parentID := old.ParentPageID()
	parentPage, err := t.pool.FetchPage(parentID)
	if err != nil {
		t.pool.UnpinPage(newPage.ID(), true)
		return basic.NewError("bplustree: fetch parent", err)
	}
	parent := t.internalView(parentPage)
	size := parent.InsertNodeAfter(oldPage.ID(), sepKey, newPage.ID())
	t.pool.UnpinPage(newPage.ID(), true)

	if size > parent.GetMaxSize() {
		sibling, parentSep, err := t.splitInternal(parentPage)
		if err == nil {
			err = t.insertIntoParent(parentPage, parentSep, sibling)
		}
		if err != nil {
			t.pool.UnpinPage(parentID, true)
			return err
		}
	}
	t.pool.UnpinPage(parentID, true)
	return nil
}

/*****************************************************************************
 * REMOVE
 *****************************************************************************/

// Remove deletes the key. A missing key is a no-op.
func (t *BPlusTree[K]) Remove(key K, txn *basic.Transaction) error {
	if t.IsEmpty() {
		return nil
	}
	leafPage, err := t.findLeafPage(key, false)
	if err != nil {
		return err
	}
	leaf := t.leafView(leafPage)
	size := leaf.RemoveRecord(key, t.cmp)

	var deleted bool
	if leaf.IsRootPage() {
		if size == 0 {
			deleted, err = t.adjustRoot(leafPage)
		}
	} else if size < leaf.GetMinSize() {
		deleted, err = t.coalesceOrRedistribute(leafPage)
	}
	t.pool.UnpinPage(leafPage.ID(), true)
	if err != nil {
		return err
	}
	if deleted {
		t.pool.DeletePage(leafPage.ID())
	}
	return nil
}

// coalesceOrRedistribute rebalances the underflowing node against a
// sibling: redistribute when the two together overfill a node, merge
// otherwise. It reports whether the node was emptied and must be deleted
// by the caller, who still holds its pin.
func (t *BPlusTree[K]) coalesceOrRedistribute(nodePage *buffer_pool.Page) (bool, error) {
	node := pages.View(nodePage)
	if node.IsRootPage() {
		return t.adjustRoot(nodePage)
	}

	parentID := node.ParentPageID()
	parentPage, err := t.pool.FetchPage(parentID)
	if err != nil {
		return false, basic.NewError("bplustree: fetch parent", err)
	}
	parent := t.internalView(parentPage)

	idx := parent.ValueIndex(nodePage.ID())
	sibIdx := idx + 1
	if sibIdx >= parent.GetSize() {
		sibIdx = idx - 1
	}
	sibID := parent.ValueAt(sibIdx)
	sibPage, err := t.pool.FetchPage(sibID)
	if err != nil {
		t.pool.UnpinPage(parentID, true)
		return false, basic.NewError("bplustree: fetch sibling", err)
	}

	if pages.View(sibPage).GetSize()+node.GetSize() > node.GetMaxSize() {
		err = t.redistribute(nodePage, sibPage, parent, idx, sibIdx)
		t.pool.UnpinPage(sibID, true)
		t.pool.UnpinPage(parentID, true)
		return false, err
	}

	err = t.merge(nodePage, sibPage, parent, idx, sibIdx)
	t.pool.UnpinPage(sibID, true)
	if err != nil {
		t.pool.UnpinPage(parentID, true)
		return true, err
	}

	var parentDeleted bool
	if parent.IsRootPage() {
		if parent.GetSize() == 1 {
			parentDeleted, err = t.adjustRoot(parentPage)
		}
	} else if parent.GetSize() < parent.GetMinSize() {
		parentDeleted, err = t.coalesceOrRedistribute(parentPage)
	}
	t.pool.UnpinPage(parentID, true)
	if err != nil {
		return true, err
	}
	if parentDeleted {
		t.pool.DeletePage(parentID)
	}
	return true, nil
}

// merge empties nodePage into its sibling and drops nodePage's slot from
// the parent, keeping leaf chain links and parent separators consistent.
func (t *BPlusTree[K]) merge(nodePage, sibPage *buffer_pool.Page,
	parent pages.BPlusTreeInternalPage[K], idx, sibIdx int) error {
	isLeaf := pages.View(nodePage).IsLeafPage()

	if sibIdx < idx {
		// Sibling on the left: append node's entries to it.
		if isLeaf {
			nodeLeaf := t.leafView(nodePage)
			sibLeaf := t.leafView(sibPage)
			next := nodeLeaf.NextPageID()
			nodeLeaf.MergeIntoLeft(sibLeaf)
			sibLeaf.SetNextPageID(next)
			if next.IsValid() {
				p, err := t.pool.FetchPage(next)
				if err != nil {
					return err
				}
				t.leafView(p).SetPrevPageID(sibPage.ID())
				t.pool.UnpinPage(next, true)
			}
		} else {
			sep := parent.KeyAt(idx)
			if err := t.internalView(nodePage).MergeIntoLeft(t.internalView(sibPage), sep, t.pool); err != nil {
				return err
			}
		}
		parent.RemoveAt(idx)
		return nil
	}

	// Sibling on the right: prepend node's entries to it. The parent key
	// that used to sit above the node must survive above the sibling.
	sep := parent.KeyAt(sibIdx)
	if isLeaf {
		nodeLeaf := t.leafView(nodePage)
		sibLeaf := t.leafView(sibPage)
		prev := nodeLeaf.PrevPageID()
		nodeLeaf.MergeIntoRight(sibLeaf)
		sibLeaf.SetPrevPageID(prev)
		if prev.IsValid() {
			p, err := t.pool.FetchPage(prev)
			if err != nil {
				return err
			}
			t.leafView(p).SetNextPageID(sibPage.ID())
			t.pool.UnpinPage(prev, true)
		}
	} else {
		if err := t.internalView(nodePage).MergeIntoRight(t.internalView(sibPage), sep, t.pool); err != nil {
			return err
		}
	}
	var nodeKey K
	hasKey := idx > 0
	if hasKey {
		nodeKey = parent.KeyAt(idx)
	}
	parent.RemoveAt(idx)
	if hasKey {
		parent.SetKeyAt(idx, nodeKey)
	}
	return nil
}

// redistribute moves one entry from the sibling into the underflowing node
// and refreshes the parent separator between them.
func (t *BPlusTree[K]) redistribute(nodePage, sibPage *buffer_pool.Page,
	parent pages.BPlusTreeInternalPage[K], idx, sibIdx int) error {
	if pages.View(nodePage).IsLeafPage() {
		nodeLeaf := t.leafView(nodePage)
		sibLeaf := t.leafView(sibPage)
		if sibIdx > idx {
			sibLeaf.MoveFirstToEndOf(nodeLeaf)
			parent.SetKeyAt(sibIdx, sibLeaf.KeyAt(0))
		} else {
			sibLeaf.MoveLastToFrontOf(nodeLeaf)
			parent.SetKeyAt(idx, nodeLeaf.KeyAt(0))
		}
		return nil
	}

	nodeInt := t.internalView(nodePage)
	sibInt := t.internalView(sibPage)
	if sibIdx > idx {
		sep := parent.KeyAt(sibIdx)
		newSep := sibInt.KeyAt(1)
		if err := sibInt.MoveFirstToEndOf(nodeInt, sep, t.pool); err != nil {
			return err
		}
		parent.SetKeyAt(sibIdx, newSep)
		return nil
	}
	sep := parent.KeyAt(idx)
	newSep := sibInt.KeyAt(sibInt.GetSize() - 1)
	if err := sibInt.MoveLastToFrontOf(nodeInt, sep, t.pool); err != nil {
		return err
	}
	parent.SetKeyAt(idx, newSep)
	return nil
}

// adjustRoot handles the two root collapse cases: an internal root left
// with a single child hands the root over to that child, and an empty root
// leaf empties the tree. It reports whether the old root page must be
// deleted by the caller, who still holds its pin.
func (t *BPlusTree[K]) adjustRoot(rootPage *buffer_pool.Page) (bool, error) {
	root := pages.View(rootPage)

	if !root.IsLeafPage() && root.GetSize() == 1 {
		childID := t.internalView(rootPage).ValueAt(0)
		childPage, err := t.pool.FetchPage(childID)
		if err != nil {
			return false, basic.NewError("bplustree: adjust root", err)
		}
		pages.View(childPage).SetParentPageID(common.InvalidPageID)
		t.pool.UnpinPage(childID, true)
		t.rootPageID = childID
		return true, t.updateRootPageID()
	}

	if root.IsLeafPage() && root.GetSize() == 0 {
		t.rootPageID = common.InvalidPageID
		return true, t.updateRootPageID()
	}
	return false, nil
}

/*****************************************************************************
 * ROOT PERSISTENCE
 *****************************************************************************/

// updateRootPageID persists the root page id into the header page record
// for this index, creating the record on first use.
func (t *BPlusTree[K]) updateRootPageID() error {
	headerPage, err := t.pool.FetchPage(common.HeaderPageID)
	if err != nil {
		return basic.NewError("bplustree: fetch header page", err)
	}
	header := pages.HeaderView(headerPage)
	if !header.UpdateRecord(t.indexName, t.rootPageID) {
		header.InsertRecord(t.indexName, t.rootPageID)
	}
	t.pool.UnpinPage(common.HeaderPageID, true)
	return nil
}
