package services

import (
	"context"
	"errors"

	"github.com/menu-planning/go-menuplan"
	"github.com/menu-planning/go-menuplan/domain/client"
	"github.com/menu-planning/go-menuplan/domain/meal"
	"github.com/menu-planning/go-menuplan/domain/menu"
)

// Event handler names, as they appear in logs and metrics.
const (
	HandlerUpdateMenuIDOnMeals = "update_menu_id_on_meals"
	HandlerDeleteRelatedMeals  = "delete_related_meals"
	HandlerNotifyMenuDeleted   = "notify_menu_deleted"
	HandlerRefreshMenuMeals    = "refresh_menu_meals"
	HandlerRemoveMealFromMenu  = "remove_meal_from_menu"
	HandlerDeleteRelatedMenus  = "delete_related_menus"
)

func registerEventHandlers(r *menuplan.HandlerRegistry[UnitOfWork], deps Dependencies) {
	menuplan.RegisterEventFunc(r, HandlerUpdateMenuIDOnMeals, updateMenuIDOnMeals)
	menuplan.RegisterEventFunc(r, HandlerDeleteRelatedMeals, deleteRelatedMeals)
	if deps.Notifier != nil {
		menuplan.RegisterEventFunc(r, HandlerNotifyMenuDeleted, notifyMenuDeleted(deps))
	}
	menuplan.RegisterEventFunc(r, HandlerRefreshMenuMeals, refreshMenuMeals)
	menuplan.RegisterEventFunc(r, HandlerRemoveMealFromMenu, removeMealFromMenu)
	menuplan.RegisterEventFunc(r, HandlerDeleteRelatedMenus, deleteRelatedMenus)
}

// updateMenuIDOnMeals points added meals at the menu and clears the
// back-reference of removed meals that still point at it.
func updateMenuIDOnMeals(ctx context.Context, evt menu.MenuMealAddedOrRemoved, uow UnitOfWork) error {
	ids := make([]string, 0, len(evt.Added)+len(evt.Removed))
	ids = append(ids, evt.Added...)
	ids = append(ids, evt.Removed...)
	if len(ids) == 0 {
		return nil
	}

	added := make(map[string]bool, len(evt.Added))
	for _, id := range evt.Added {
		added[id] = true
	}

	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		meals, err := uow.Meals().Query(ctx, menuplan.NewQuery().Where("id", menuplan.FilterOpIn, ids).Build())
		if err != nil {
			return err
		}
		changed := make([]*meal.Meal, 0, len(meals))
		for _, m := range meals {
			switch {
			case added[m.AggregateID()]:
				err = m.SetMenuID(evt.MenuID)
			case m.MenuID() == evt.MenuID:
				err = m.SetMenuID("")
			default:
				continue
			}
			if err != nil {
				return err
			}
			changed = append(changed, m)
		}
		if err := uow.Meals().PersistAll(ctx, changed); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func deleteRelatedMeals(ctx context.Context, evt menu.MenuDeleted, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		meals, err := uow.Meals().Query(ctx, menuplan.NewQuery().Where("menu_id", menuplan.FilterOpEq, evt.MenuID).Build())
		if err != nil {
			return err
		}
		for _, m := range meals {
			if err := m.Delete(); err != nil {
				return err
			}
		}
		if err := uow.Meals().PersistAll(ctx, meals); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

// notifyMenuDeleted publishes MenuDeleted to the configured destination.
// It touches no aggregate and leaves the unit of work alone.
func notifyMenuDeleted(deps Dependencies) func(context.Context, menu.MenuDeleted, UnitOfWork) error {
	return func(ctx context.Context, evt menu.MenuDeleted, _ UnitOfWork) error {
		n, err := menuplan.NewNotification(evt, evt.MenuID, deps.NotifyDestination, deps.Serializer)
		if err != nil {
			return err
		}
		if id := menuplan.CorrelationIDFromContext(ctx); id != "" {
			n.WithHeader("correlation-id", id)
		}
		return deps.Notifier.Notify(ctx, n)
	}
}

// refreshMenuMeals copies the meal's current name and nutrition into the
// menu slots that hold it.
func refreshMenuMeals(ctx context.Context, evt meal.MealAttributesChanged, uow UnitOfWork) error {
	if evt.MenuID == "" {
		return nil
	}
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		ml, err := uow.Meals().Get(ctx, evt.MealID)
		if err != nil {
			return err
		}
		mn, err := uow.Menus().Get(ctx, evt.MenuID)
		if errors.Is(err, menuplan.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		snap, err := ml.Snapshot()
		if err != nil {
			return err
		}
		found, err := mn.RefreshMealsFromMeal(snap.ID, snap.Name, snap.NutriFacts)
		if err != nil || !found {
			return err
		}
		if err := uow.Menus().Persist(ctx, mn); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func removeMealFromMenu(ctx context.Context, evt meal.MealDeleted, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		mn, err := uow.Menus().Get(ctx, evt.MenuID)
		if errors.Is(err, menuplan.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !mn.HasMeal(evt.MealID) {
			return nil
		}
		if err := mn.RemoveMealsByID(evt.MealID); err != nil {
			return err
		}
		if err := uow.Menus().Persist(ctx, mn); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}

func deleteRelatedMenus(ctx context.Context, evt client.ClientDeleted, uow UnitOfWork) error {
	return menuplan.Run(ctx, uow, func(uow UnitOfWork) error {
		menus, err := uow.Menus().Query(ctx, menuplan.NewQuery().Where("client_id", menuplan.FilterOpEq, evt.ClientID).Build())
		if err != nil {
			return err
		}
		for _, m := range menus {
			if err := m.Delete(); err != nil {
				return err
			}
		}
		if err := uow.Menus().PersistAll(ctx, menus); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})
}
