package services

import (
	"context"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/client"
	"github.com/menu-planning/go-menuplan/domain/meal"
	"github.com/menu-planning/go-menuplan/domain/menu"
	"github.com/menu-planning/go-menuplan/domain/shared"
)

func registerCommandHandlers(r *menuplan.HandlerRegistry[UnitOfWork]) {
	menuplan.RegisterCommandFunc(r, createMeal)
	menuplan.RegisterCommandFunc(r, updateMeal)
	menuplan.RegisterCommandFunc(r, deleteMeal)
	menuplan.RegisterCommandFunc(r, addRecipeToMeal)
	menuplan.RegisterCommandFunc(r, copyMeal)
	menuplan.RegisterCommandFunc(r, createMenu)
	menuplan.RegisterCommandFunc(r, updateMenu)
	menuplan.RegisterCommandFunc(r, deleteMenu)
	menuplan.RegisterCommandFunc(r, addMealToMenu)
	menuplan.RegisterCommandFunc(r, removeMealsFromMenu)
	menuplan.RegisterCommandFunc(r, createClient)
	menuplan.RegisterCommandFunc(r, updateClient)
	menuplan.RegisterCommandFunc(r, deleteClient)
}

func createMeal(ctx context.Context, cmd CreateMeal, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		id := cmd.MealID
		if id == "" {
			id = menuplan.NewID()
		}
		recipes := make([]*meal.Recipe, 0, len(cmd.Recipes))
		for _, p := range cmd.Recipes {
			p.MealID = id
			p.AuthorID = cmd.AuthorID
			recipes = append(recipes, meal.NewRecipe(p))
		}
		m, err := meal.New(meal.Params{
			ID:          id,
			AuthorID:    cmd.AuthorID,
			Name:        cmd.Name,
			Description: cmd.Description,
			Notes:       cmd.Notes,
			ImageURL:    cmd.ImageURL,
			Recipes:     recipes,
			Tags:        shared.NewTagSet(cmd.Tags...),
		})
		if err != nil {
			return err
		}
		if err := uow.Meals().Add(ctx, m); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func updateMeal(ctx context.Context, cmd UpdateMeal, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		m, err := uow.Meals().Get(ctx, cmd.MealID)
		if err != nil {
			return err
		}
		if err := m.UpdateProperties(cmd.Updates); err != nil {
			return err
		}
		if err := uow.Meals().Persist(ctx, m); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func deleteMeal(ctx context.Context, cmd DeleteMeal, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		m, err := uow.Meals().Get(ctx, cmd.MealID)
		if err != nil {
			return err
		}
		if err := m.Delete(); err != nil {
			return err
		}
		if err := uow.Meals().Persist(ctx, m); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func addRecipeToMeal(ctx context.Context, cmd AddRecipeToMeal, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		m, err := uow.Meals().Get(ctx, cmd.MealID)
		if err != nil {
			return err
		}
		snap, err := m.Snapshot()
		if err != nil {
			return err
		}
		p := cmd.Recipe
		p.MealID = snap.ID
		p.AuthorID = snap.AuthorID
		if err := m.AddRecipe(meal.NewRecipe(p)); err != nil {
			return err
		}
		if err := uow.Meals().Persist(ctx, m); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func copyMeal(ctx context.Context, cmd CopyMeal, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		source, err := uow.Meals().Get(ctx, cmd.MealID)
		if err != nil {
			return err
		}
		copied, err := source.Copy(cmd.AuthorID)
		if err != nil {
			return err
		}
		if cmd.NewMealID != "" {
			// Re-create under the requested ID so recipes carry it too.
			copied, err = meal.New(meal.Params{
				ID:          cmd.NewMealID,
				AuthorID:    copied.AuthorID(),
				Name:        copied.Name(),
				Description: copied.Description(),
				Notes:       copied.Notes(),
				ImageURL:    copied.ImageURL(),
				Recipes:     copied.Recipes(),
				Tags:        copied.Tags(),
			})
			if err != nil {
				return err
			}
		}
		if err := uow.Meals().Add(ctx, copied); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func createMenu(ctx context.Context, cmd CreateMenu, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		c, err := uow.Clients().Get(ctx, cmd.ClientID)
		if err != nil {
			return err
		}
		if _, err := c.Snapshot(); err != nil {
			return err
		}
		m, err := menu.New(menu.Params{
			ID:          cmd.MenuID,
			AuthorID:    cmd.AuthorID,
			ClientID:    cmd.ClientID,
			Description: cmd.Description,
			Notes:       cmd.Notes,
			Tags:        shared.NewTagSet(cmd.Tags...),
		})
		if err != nil {
			return err
		}
		if err := uow.Menus().Add(ctx, m); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func updateMenu(ctx context.Context, cmd UpdateMenu, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		m, err := uow.Menus().Get(ctx, cmd.MenuID)
		if err != nil {
			return err
		}
		if err := m.UpdateProperties(cmd.Updates); err != nil {
			return err
		}
		if err := uow.Menus().Persist(ctx, m); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func deleteMenu(ctx context.Context, cmd DeleteMenu, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		m, err := uow.Menus().Get(ctx, cmd.MenuID)
		if err != nil {
			return err
		}
		if err := m.Delete(); err != nil {
			return err
		}
		if err := uow.Menus().Persist(ctx, m); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func addMealToMenu(ctx context.Context, cmd AddMealToMenu, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		mn, err := uow.Menus().Get(ctx, cmd.MenuID)
		if err != nil {
			return err
		}
		ml, err := uow.Meals().Get(ctx, cmd.MealID)
		if err != nil {
			return err
		}
		snap, err := ml.Snapshot()
		if err != nil {
			return err
		}
		err = mn.AddMeal(menu.MenuMeal{
			MealID:     snap.ID,
			MealName:   snap.Name,
			NutriFacts: snap.NutriFacts,
			Week:       cmd.Week,
			Weekday:    cmd.Weekday,
			MealType:   cmd.MealType,
		})
		if err != nil {
			return err
		}
		if err := uow.Menus().Persist(ctx, mn); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func removeMealsFromMenu(ctx context.Context, cmd RemoveMealsFromMenu, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		m, err := uow.Menus().Get(ctx, cmd.MenuID)
		if err != nil {
			return err
		}
		if err := m.RemoveMeals(cmd.Keys...); err != nil {
			return err
		}
		if err := uow.Menus().Persist(ctx, m); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func createClient(ctx context.Context, cmd CreateClient, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		c, err := client.New(client.Params{
			ID:       cmd.ClientID,
			AuthorID: cmd.AuthorID,
			Profile:  cmd.Profile,
			Notes:    cmd.Notes,
			Tags:     shared.NewTagSet(cmd.Tags...),
		})
		if err != nil {
			return err
		}
		if err := uow.Clients().Add(ctx, c); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func updateClient(ctx context.Context, cmd UpdateClient, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		c, err := uow.Clients().Get(ctx, cmd.ClientID)
		if err != nil {
			return err
		}
		if err := c.UpdateProperties(cmd.Updates); err != nil {
			return err
		}
		if err := uow.Clients().Persist(ctx, c); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func deleteClient(ctx context.Context, cmd DeleteClient, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		c, err := uow.Clients().Get(ctx, cmd.ClientID)
		if err != nil {
			return err
		}
		if err := c.Delete(); err != nil {
			return err
		}
		if err := uow.Clients().Persist(ctx, c); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}
