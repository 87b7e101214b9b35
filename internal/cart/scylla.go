package cart

import (
	"context"
	"fmt"

	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"

	"github.com/gocql/gocql"
)

// NewScyllaGateway câble le panier sur ScyllaDB : articles et stock dans le
// keyspace items, lignes de panier dans le keyspace users, achats dans le
// keyspace purchases.
func NewScyllaGateway() Gateway {
	return Gateway{
		Items:     scyllaItems{},
		Lines:     scyllaLines{},
		Stock:     scyllaStock{},
		Purchases: scyllaPurchases{},
	}
}

type scyllaItems struct{}

func (scyllaItems) Get(ctx context.Context, itemID gocql.UUID) (models.Item, error) {
	session, err := database.GetItemsSession()
	if err != nil {
		return models.Item{}, err
	}

	var item models.Item
	err = session.Query(`SELECT item_id, title, description, price, stock, size, condition, category_id, image_urls, seller_id, is_published, created_at, updated_at
		FROM items WHERE item_id = ?`, itemID).WithContext(ctx).Scan(
		&item.ID, &item.Title, &item.Description, &item.Price, &item.Stock,
		&item.Size, &item.Condition, &item.CategoryID, &item.ImageURLs,
		&item.SellerID, &item.IsPublished, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return models.Item{}, err
	}
	return item, nil
}

func (scyllaItems) Stock(ctx context.Context, itemID gocql.UUID) (int, error) {
	return readStock(ctx, itemID)
}

// readStock passe par la requête partagée du paquet database, utilisée
// partout où le stock courant est relu.
func readStock(ctx context.Context, itemID gocql.UUID) (int, error) {
	q, err := database.QueryItemStock(itemID)
	if err != nil {
		return 0, err
	}
	var stock int
	if err := q.WithContext(ctx).Scan(&stock); err != nil {
		return 0, err
	}
	return stock, nil
}

type scyllaLines struct{}

func (scyllaLines) Lines(ctx context.Context, identity string) ([]models.CartLine, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query("SELECT item_id, quantity FROM cart_items WHERE user_id = ?", identity).
		WithContext(ctx).Iter()

	var lines []models.CartLine
	var line models.CartLine
	for iter.Scan(&line.ItemID, &line.Quantity) {
		line.UserID = identity
		lines = append(lines, line)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (scyllaLines) Insert(ctx context.Context, line models.CartLine) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}
	return session.Query("INSERT INTO cart_items (user_id, item_id, quantity) VALUES (?, ?, ?)",
		line.UserID, line.ItemID, line.Quantity).WithContext(ctx).Exec()
}

func (scyllaLines) UpdateQuantity(ctx context.Context, identity string, itemID gocql.UUID, quantity int) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}
	return session.Query("UPDATE cart_items SET quantity = ? WHERE user_id = ? AND item_id = ?",
		quantity, identity, itemID).WithContext(ctx).Exec()
}

func (scyllaLines) Delete(ctx context.Context, identity string, itemID gocql.UUID) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}
	return session.Query("DELETE FROM cart_items WHERE user_id = ? AND item_id = ?",
		identity, itemID).WithContext(ctx).Exec()
}

func (scyllaLines) DeleteAll(ctx context.Context, identity string) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}
	return session.Query("DELETE FROM cart_items WHERE user_id = ?", identity).
		WithContext(ctx).Exec()
}

type scyllaStock struct{}

// reserveAttempts borne la boucle de retry sous forte contention
const reserveAttempts = 5

// Reserve décrémente le stock par transaction légère (IF stock = ?). La
// vérification et l'écriture forment une seule opération conditionnelle :
// deux acheteurs concurrents ne peuvent pas sur-vendre la même unité.
func (scyllaStock) Reserve(ctx context.Context, itemID gocql.UUID, quantity int) (bool, error) {
	session, err := database.GetItemsSession()
	if err != nil {
		return false, err
	}

	for attempt := 0; attempt < reserveAttempts; attempt++ {
		stock, err := readStock(ctx, itemID)
		if err != nil {
			return false, err
		}
		if stock < quantity {
			return false, nil
		}

		var prev int
		applied, err := session.Query(
			"UPDATE items SET stock = ? WHERE item_id = ? IF stock = ?",
			stock-quantity, itemID, stock).WithContext(ctx).ScanCAS(&prev)
		if err != nil {
			return false, err
		}
		if applied {
			return true, nil
		}
		// Quelqu'un d'autre a écrit entre la lecture et le CAS : on relit
	}
	return false, fmt.Errorf("contention sur le stock de %s", itemID)
}

// Release rend une réservation, même logique conditionnelle en sens inverse.
func (scyllaStock) Release(ctx context.Context, itemID gocql.UUID, quantity int) error {
	session, err := database.GetItemsSession()
	if err != nil {
		return err
	}

	for attempt := 0; attempt < reserveAttempts; attempt++ {
		stock, err := readStock(ctx, itemID)
		if err != nil {
			return err
		}

		var prev int
		applied, err := session.Query(
			"UPDATE items SET stock = ? WHERE item_id = ? IF stock = ?",
			stock+quantity, itemID, stock).WithContext(ctx).ScanCAS(&prev)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}
	return fmt.Errorf("contention sur le stock de %s", itemID)
}

type scyllaPurchases struct{}

func (scyllaPurchases) Insert(ctx context.Context, p models.Purchase) error {
	session, err := database.GetPurchasesSession()
	if err != nil {
		return err
	}
	return session.Query(`INSERT INTO purchases (purchase_id, user_id, item_id, quantity, unit_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.ItemID, p.Quantity, p.UnitPrice, p.CreatedAt).
		WithContext(ctx).Exec()
}

func (scyllaPurchases) Delete(ctx context.Context, purchaseID gocql.UUID) error {
	session, err := database.GetPurchasesSession()
	if err != nil {
		return err
	}
	return session.Query("DELETE FROM purchases WHERE purchase_id = ?", purchaseID).
		WithContext(ctx).Exec()
}
