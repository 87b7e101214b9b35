package cart

import "errors"

var (
	// ErrOutOfStock : l'article n'a plus aucun stock disponible
	ErrOutOfStock = errors.New("article en rupture de stock")

	// ErrInsufficientStock : la quantité demandée dépasse le stock disponible
	ErrInsufficientStock = errors.New("stock insuffisant")

	// ErrInvalidQuantity : quantité inférieure à 1, rejetée avant tout appel réseau
	ErrInvalidQuantity = errors.New("quantité invalide")

	// ErrRemoteWrite : une écriture vers le stockage a échoué, l'état local est inchangé
	ErrRemoteWrite = errors.New("écriture panier échouée")

	// ErrCheckoutFailed : au moins une ligne d'achat n'a pas pu être créée
	ErrCheckoutFailed = errors.New("échec de la commande")

	// ErrEmptyCart : commande impossible sur un panier vide
	ErrEmptyCart = errors.New("panier vide")

	// ErrMissingShipping : nom, adresse et téléphone sont obligatoires
	ErrMissingShipping = errors.New("informations de livraison incomplètes")
)
