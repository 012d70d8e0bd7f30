package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phanxgames/poser"
	"github.com/phanxgames/poser/internal/library"
)

func (s *Server) handleLibraryList(c *fiber.Ctx) error {
	entries, err := s.lib.List(c.UserContext())
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []library.Entry{}
	}
	return c.JSON(entries)
}

func (s *Server) handleLibraryGet(c *fiber.Ctx) error {
	e, err := s.lib.Get(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(e)
}

// handleLibrarySave stores the studio's current pose under :name.
func (s *Server) handleLibrarySave(c *fiber.Ctx) error {
	s.mu.Lock()
	pose, props := s.studio.Pose(), s.studio.Proportions()
	s.mu.Unlock()

	e, err := s.lib.Save(c.UserContext(), c.Params("name"), pose, props)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

// handleLibraryLoad eases the studio into the saved pose.
func (s *Server) handleLibraryLoad(c *fiber.Ctx) error {
	e, err := s.lib.Get(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	pose, props, err := e.Decode()
	if err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error {
		st.SetProportions(props)
		st.Play(pose.Partial(), 0)
		return nil
	})
}

func (s *Server) handleLibraryDelete(c *fiber.Ctx) error {
	if err := s.lib.Delete(c.UserContext(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSequenceList(c *fiber.Ctx) error {
	names, err := s.lib.ListSequences(c.UserContext())
	if err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(names)
}

func (s *Server) handleSequenceGet(c *fiber.Ctx) error {
	seq, err := s.lib.GetSequence(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(seq)
}

// handleSequenceSave stores the studio's keyframes under :name, along with
// the body's loop flag.
func (s *Server) handleSequenceSave(c *fiber.Ctx) error {
	var body playBody
	if len(c.Body()) > 0 {
		if err := parseBody(c, &body); err != nil {
			return err
		}
	}
	s.mu.Lock()
	kfs := s.studio.Keyframes()
	s.mu.Unlock()

	seq, err := s.lib.SaveSequence(c.UserContext(), c.Params("name"), kfs, body.Loop)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(seq)
}

// handleSequenceLoad replaces the studio's keyframes with the saved
// sequence and starts playing it.
func (s *Server) handleSequenceLoad(c *fiber.Ctx) error {
	seq, err := s.lib.GetSequence(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return s.mutate(c, func(st *poser.Studio) error {
		st.SetKeyframes(seq.Keyframes)
		return st.PlayTimeline(seq.Loop)
	})
}

func (s *Server) handleSequenceDelete(c *fiber.Ctx) error {
	if err := s.lib.DeleteSequence(c.UserContext(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
