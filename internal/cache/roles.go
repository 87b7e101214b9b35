package cache

import (
	"context"
	"time"

	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"

	"github.com/gocql/gocql"
)

const RoleCacheTTL = 5 * time.Minute

// IsAdmin vérifie le rôle d'un utilisateur dans user_roles, avec cache
// Redis. Un rôle absent vaut "user" : seuls les comptes explicitement
// enregistrés comme admin obtiennent le privilège.
func IsAdmin(userID string) (bool, error) {
	role, err := GetRole(userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// GetRole récupère le rôle d'un utilisateur depuis Redis ou ScyllaDB
func GetRole(userID string) (string, error) {
	ctx := context.Background()
	key := "role:" + userID

	// 1. Essayer le cache Redis
	role, err := database.Redis.Get(ctx, key).Result()
	if err == nil && role != "" {
		return role, nil
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetUsersSession()
	if err != nil {
		return "", err
	}

	err = session.Query("SELECT role FROM user_roles WHERE user_id = ?", userID).Scan(&role)
	if err == gocql.ErrNotFound {
		role = models.RoleUser
	} else if err != nil {
		return "", err
	}

	// 3. Mettre en cache
	database.Redis.Set(ctx, key, role, RoleCacheTTL)

	return role, nil
}

// InvalidateRoleCache invalide le rôle en cache après un changement
func InvalidateRoleCache(userID string) {
	ctx := context.Background()
	database.Redis.Del(ctx, "role:"+userID)
}
