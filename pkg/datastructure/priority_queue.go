package datastructure

import "cmp"

type PriorityQueueNode[T cmp.Ordered] struct {
	Rank float64
	Item T
}

func NewPriorityQueueNode[T cmp.Ordered](rank float64, item T) PriorityQueueNode[T] {
	return PriorityQueueNode[T]{Rank: rank, Item: item}
}

// MinHeap binary heap priority queue. nodes with equal rank are ordered by item,
// so extraction order never depends on insertion order.
type MinHeap[T cmp.Ordered] struct {
	heap []PriorityQueueNode[T]
	pos  map[T]int
}

func NewMinHeap[T cmp.Ordered]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
	}
}

func (h *MinHeap[T]) less(i, j int) bool {
	if h.heap[i].Rank != h.heap[j].Rank {
		return h.heap[i].Rank < h.heap[j].Rank
	}
	return h.heap[i].Item < h.heap[j].Item
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].Item] = i
	h.pos[h.heap[j].Item] = j
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

// heapifyUp move the node at index up while it is smaller than its parent. O(logN)
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.less(index, h.parent(index)) {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

// heapifyDown move the node at index down to the smaller child until the heap property holds. O(logN)
func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		smallest := index
		left := 2*index + 1
		right := 2*index + 2
		if left < len(h.heap) && h.less(left, smallest) {
			smallest = left
		}
		if right < len(h.heap) && h.less(right, smallest) {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) Contains(item T) bool {
	_, ok := h.pos[item]
	return ok
}

func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], bool) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, false
	}
	return h.heap[0], true
}

// Insert add a new node. if the item is already in the heap its rank is updated instead.
func (h *MinHeap[T]) Insert(node PriorityQueueNode[T]) {
	if idx, ok := h.pos[node.Item]; ok {
		old := h.heap[idx].Rank
		h.heap[idx].Rank = node.Rank
		if node.Rank < old {
			h.heapifyUp(idx)
		} else {
			h.heapifyDown(idx)
		}
		return
	}
	h.heap = append(h.heap, node)
	index := len(h.heap) - 1
	h.pos[node.Item] = index
	h.heapifyUp(index)
}

// ExtractMin pop the node with the smallest rank. O(logN)
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], bool) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, false
	}
	root := h.heap[0]
	last := len(h.heap) - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	delete(h.pos, root.Item)
	if len(h.heap) > 0 {
		h.heapifyDown(0)
	}
	return root, true
}

// DecreaseKey lower the rank of an item already in the heap. no-op when the
// item is missing or the new rank is not smaller.
func (h *MinHeap[T]) DecreaseKey(node PriorityQueueNode[T]) {
	idx, ok := h.pos[node.Item]
	if !ok || node.Rank >= h.heap[idx].Rank {
		return
	}
	h.heap[idx].Rank = node.Rank
	h.heapifyUp(idx)
}
