package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"friperie_back_end/internal/database"
	"friperie_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const itemsIndex = "items"

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

// IndexItem indexe un article dans Elasticsearch
func IndexItem(item models.Item) {
	if database.Elastic == nil {
		log.Println("⚠️ Elastic non initialisé, impossible d'indexer:", item.Title)
		return
	}

	data, _ := json.Marshal(item)
	req := esapi.IndexRequest{
		Index:      itemsIndex,
		DocumentID: item.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", item.Title, res.String())
	}
}

// RemoveItemFromIndex retire un article de l'index (dépublication, suppression)
func RemoveItemFromIndex(itemID string) {
	if database.Elastic == nil {
		return
	}

	req := esapi.DeleteRequest{
		Index:      itemsIndex,
		DocumentID: itemID,
	}

	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur suppression index Elastic:", err)
		return
	}
	res.Body.Close()
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

// SearchItems recherche les articles publiés par titre ou description
func SearchItems(query string) ([]map[string]interface{}, error) {
	if database.Elastic == nil {
		return nil, errors.New("client Elasticsearch non initialisé")
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"title", "description"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"is_published": true},
				},
			},
		},
	}

	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %v", err)
	}

	req := esapi.SearchRequest{
		Index: []string{itemsIndex},
		Body:  &buf,
	}
	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		json.NewDecoder(res.Body).Decode(&e)
		log.Printf("❌ Elasticsearch erreur: %+v", e)
		return nil, errors.New("index non trouvé ou vide")
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %v", err)
	}

	hitsData, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("réponse Elastic invalide (pas de hits)")
	}

	hitsArray, ok := hitsData["hits"].([]interface{})
	if !ok {
		return []map[string]interface{}{}, nil
	}

	results := make([]map[string]interface{}, 0, len(hitsArray))
	for _, hit := range hitsArray {
		hitMap, _ := hit.(map[string]interface{})
		if source, ok := hitMap["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}

	return results, nil
}
