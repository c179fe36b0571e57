package domain

import (
	"fmt"
	"sort"
	"time"
)

// ProductImage is one image of a product. SortOrder 0 is the primary image.
type ProductImage struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	URL       string    `json:"url"`
	AltText   string    `json:"alt"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
}

// ImageSet is the full image collection of one product, kept ordered by
// SortOrder. Every mutating method leaves SortOrder equal to the slice index.
type ImageSet []ProductImage

// NewImageSet sorts a loaded collection and packs its sort orders.
func NewImageSet(images []ProductImage) ImageSet {
	set := make(ImageSet, len(images))
	copy(set, images)
	sort.SliceStable(set, func(i, j int) bool { return set[i].SortOrder < set[j].SortOrder })
	set.pack()
	return set
}

// Append adds images after the current last one. On an empty set the first
// appended image becomes the primary.
func (s *ImageSet) Append(images ...ProductImage) {
	*s = append(*s, images...)
	s.pack()
}

// Remove deletes the image and closes the gap it leaves.
func (s *ImageSet) Remove(imageID string) (ProductImage, error) {
	i := s.index(imageID)
	if i < 0 {
		return ProductImage{}, fmt.Errorf("%w: image %s", ErrNotFound, imageID)
	}
	removed := (*s)[i]
	*s = append((*s)[:i], (*s)[i+1:]...)
	s.pack()
	return removed, nil
}

// Reorder puts the images in the given order. ids must be a permutation of
// the current image ids.
func (s *ImageSet) Reorder(ids []string) error {
	if len(ids) != len(*s) {
		return fmt.Errorf("%w: expected %d image ids, got %d", ErrInvalidArgument, len(*s), len(ids))
	}
	byID := make(map[string]ProductImage, len(*s))
	for _, img := range *s {
		byID[img.ID] = img
	}
	next := make(ImageSet, 0, len(ids))
	for _, id := range ids {
		img, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: image %s is not part of the product or listed twice", ErrInvalidArgument, id)
		}
		delete(byID, id)
		next = append(next, img)
	}
	next.pack()
	*s = next
	return nil
}

// SetPrimary moves the image to the front; the rest keep their relative order.
func (s *ImageSet) SetPrimary(imageID string) error {
	i := s.index(imageID)
	if i < 0 {
		return fmt.Errorf("%w: image %s", ErrNotFound, imageID)
	}
	img := (*s)[i]
	copy((*s)[1:i+1], (*s)[:i])
	(*s)[0] = img
	s.pack()
	return nil
}

// Get returns the image with the given id.
func (s ImageSet) Get(imageID string) (ProductImage, bool) {
	if i := s.index(imageID); i >= 0 {
		return s[i], true
	}
	return ProductImage{}, false
}

// Primary returns the image at position 0.
func (s ImageSet) Primary() (ProductImage, bool) {
	if len(s) == 0 {
		return ProductImage{}, false
	}
	return s[0], true
}

// Validate checks that sort orders are exactly 0..n-1.
func (s ImageSet) Validate() error {
	seen := make(map[int]bool, len(s))
	for _, img := range s {
		if img.SortOrder < 0 || img.SortOrder >= len(s) || seen[img.SortOrder] {
			return fmt.Errorf("image %s has invalid sort order %d in a set of %d", img.ID, img.SortOrder, len(s))
		}
		seen[img.SortOrder] = true
	}
	return nil
}

func (s ImageSet) index(imageID string) int {
	for i, img := range s {
		if img.ID == imageID {
			return i
		}
	}
	return -1
}

func (s ImageSet) pack() {
	for i := range s {
		s[i].SortOrder = i
	}
}
