package database

import (
	"log"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"friperie_back_end/internal/models"
)

// Requêtes fréquentes, centralisées : gocql ne prépare chaque statement
// qu'une fois par session, tous les appelants réutilisent la même
// préparation.
const (
	stmtUserIDByEmail   = "SELECT user_id FROM users_by_email WHERE email = ?"
	stmtUserByID        = `SELECT email, password, name, role, provider, provider_id, avatar_url FROM users WHERE user_id = ?`
	stmtInsertUser      = `INSERT INTO users (user_id, email, password, name, role, provider, provider_id, avatar_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmtInsertUserEmail = "INSERT INTO users_by_email (email, user_id) VALUES (?, ?)"
	stmtItemStock       = "SELECT stock FROM items WHERE item_id = ?"
)

var preparedOnce sync.Once

// InitPreparedStatements ouvre les sessions au démarrage pour que la
// première requête ne paie ni la connexion ni la préparation.
func InitPreparedStatements() {
	preparedOnce.Do(func() {
		if _, err := GetUsersSession(); err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements: %v", err)
			return
		}
		if _, err := GetItemsSession(); err != nil {
			log.Printf("⚠️ Impossible de préparer les requêtes items: %v", err)
			return
		}
		log.Println("✅ Prepared statements initialisés")
	})
}

// Chaque constructeur renvoie une requête indépendante : un *gocql.Query
// lié à ses valeurs ne se partage pas entre handlers concurrents.

// QueryUserIDByEmail résout un user_id depuis la table de correspondance
// users_by_email.
func QueryUserIDByEmail(email string) (*gocql.Query, error) {
	session, err := GetUsersSession()
	if err != nil {
		return nil, err
	}
	return session.Query(stmtUserIDByEmail, email), nil
}

// QueryUserByID charge le profil complet d'un utilisateur.
func QueryUserByID(userID string) (*gocql.Query, error) {
	session, err := GetUsersSession()
	if err != nil {
		return nil, err
	}
	return session.Query(stmtUserByID, userID), nil
}

// InsertUserQuery écrit une nouvelle ligne users.
func InsertUserQuery(u models.User, createdAt, updatedAt time.Time) (*gocql.Query, error) {
	session, err := GetUsersSession()
	if err != nil {
		return nil, err
	}
	return session.Query(stmtInsertUser,
		u.ID, u.Email, u.Password, u.Name, u.Role,
		u.Provider, u.ProviderID, u.AvatarURL, createdAt, updatedAt), nil
}

// InsertUserByEmailQuery maintient la table de correspondance email → id.
func InsertUserByEmailQuery(email, userID string) (*gocql.Query, error) {
	session, err := GetUsersSession()
	if err != nil {
		return nil, err
	}
	return session.Query(stmtInsertUserEmail, email, userID), nil
}

// QueryItemStock lit le stock faisant autorité, relu avant chaque mutation
// panier et à chaque tour de la boucle de réservation conditionnelle.
func QueryItemStock(itemID gocql.UUID) (*gocql.Query, error) {
	session, err := GetItemsSession()
	if err != nil {
		return nil, err
	}
	return session.Query(stmtItemStock, itemID), nil
}
