package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/verte-zerg/quizly/internal/model"
	"github.com/verte-zerg/quizly/internal/stats"
)

const (
	profileSelect = "select"
	profileCreate = "create"
)

func (c *Controller) selectProfile(ctx context.Context) error {
	fmt.Fprintln(c.out, "Would you like to select available profiles or create a new one?")
	choice, err := c.prompt.choose(ctx,
		"Type 'select' or 'create': ",
		"Invalid choice! Please try again.\n",
		profileSelect, profileCreate)
	if err != nil {
		return err
	}

	if len(c.profile.Statistics) > 0 {
		fmt.Fprintln(c.out, "Saving current profile question statistics...")
		fmt.Fprintln(c.out)
		if err := c.store.SaveProfileStatistics(ctx, c.profile); err != nil {
			c.warn("failed to save profile statistics", err)
		}
	}

	if choice == profileSelect {
		return c.switchProfile(ctx)
	}
	return c.createProfile(ctx)
}

func (c *Controller) switchProfile(ctx context.Context) error {
	fmt.Fprintln(c.out, "Loading available profiles...")
	fmt.Fprintln(c.out)
	profiles, err := c.store.ListProfiles(ctx)
	if err != nil {
		c.warn("failed to list profiles", err)
		return nil
	}
	if len(profiles) <= 1 {
		fmt.Fprintln(c.out, "Please add more profiles before selecting!")
		fmt.Fprintln(c.out)
		return nil
	}
	if err := stats.RenderProfiles(c.out, profiles); err != nil {
		return err
	}

	fmt.Fprintln(c.out, "\nPlease type the ID of the profile you would like to select.")
	byID := make(map[int]model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	id, err := c.readID(ctx, "profile", func(id int) bool {
		_, ok := byID[id]
		return ok
	})
	if err != nil {
		return err
	}

	loaded, err := c.store.LoadProfileStatistics(ctx, byID[id])
	if err != nil {
		c.warn("failed to load profile statistics", err)
		loaded = model.Profile{ID: id, Name: byID[id].Name}
	}
	c.activate(loaded)
	fmt.Fprintf(c.out, "You successfully selected profile: %s!\n\n", capitalize(loaded.Name))
	return nil
}

func (c *Controller) createProfile(ctx context.Context) error {
	id, err := c.store.NextProfileID(ctx)
	if err != nil {
		c.warn("failed to read profiles", err)
		return nil
	}
	for {
		line, err := c.prompt.ask(ctx, "Enter new profile name: ")
		if err != nil {
			return err
		}
		name, err := model.RequireText(strings.ToLower(line), "profile name")
		if err != nil {
			fmt.Fprintf(c.out, "%s! Please try again.\n\n", capitalize(err.Error()))
			continue
		}
		profile := model.Profile{ID: id, Name: name}
		created, err := c.store.CreateProfile(ctx, profile)
		if err != nil {
			c.warn("failed to create profile", err)
			return nil
		}
		if !created {
			fmt.Fprintln(c.out, "Please enter a name which has not been used before.")
			fmt.Fprintln(c.out)
			continue
		}
		c.activate(profile)
		fmt.Fprintf(c.out, "Successfully created a new profile %s!\n\n", capitalize(name))
		return nil
	}
}

func (c *Controller) activate(profile model.Profile) {
	c.profile = profile
	c.profile.InitStatistics(c.questions)
	c.logger.Debug("profile activated", "id", profile.ID, "name", profile.Name)
}
