package session

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"room-annotator/internal/annotation/models"
)

// ============================================================
// Image registration
// ============================================================

// ImageFile is one selected floor-plan image awaiting decode.
type ImageFile struct {
	Name string
	Data []byte
}

// RegisterImages decodes the dimensions of every selected file and then
// flips the session's image list atomically: observers see either no
// images or all of them, never a partial list. If the session is reset
// while decodes are in flight the late result is discarded; the
// generation token taken before decoding guards against resurrecting a
// discarded session.
func (s *Session) RegisterImages(files []ImageFile) error {
	if len(files) == 0 {
		return fmt.Errorf("no image files supplied")
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	infos := make([]models.ImageInfo, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f ImageFile) {
			defer wg.Done()
			cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
			if err != nil {
				errs[i] = fmt.Errorf("decode %s: %w", f.Name, err)
				return
			}
			infos[i] = models.ImageInfo{
				Filename: f.Name,
				Width:    cfg.Width,
				Height:   cfg.Height,
			}
		}(i, f)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	if !s.commitImages(gen, infos) {
		return fmt.Errorf("session was reset while decoding images")
	}
	return nil
}

// commitImages installs the decoded set if the session generation still
// matches the one the decode started under.
func (s *Session) commitImages(gen string, infos []models.ImageInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		log.Printf("[SESSION] Dropping %d decoded images for stale generation", len(infos))
		return false
	}
	s.images = infos
	s.current = 0
	return true
}
