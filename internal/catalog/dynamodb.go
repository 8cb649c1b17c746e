package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imrishuroy/go-order-intake/internal/aws"
)

// productItem is the shape of a product in the catalog DynamoDB table.
// Counts are pointers so a missing attribute gets the loader default.
type productItem struct {
	SKU         string `dynamodbav:"sku"`
	Name        string `dynamodbav:"name"`
	Stock       *int   `dynamodbav:"stock"`
	MOQ         *int   `dynamodbav:"moq"`
	Description string `dynamodbav:"description"`
}

func (it productItem) row() Row {
	r := Row{
		codeColumns[0]: it.SKU,
		nameColumns[0]: it.Name,
		"Description":  it.Description,
	}
	if it.Stock != nil {
		r[stockColumns[0]] = strconv.Itoa(*it.Stock)
	}
	if it.MOQ != nil {
		r[moqColumns[0]] = strconv.Itoa(*it.MOQ)
	}
	return r
}

// LoadDynamoDB scans the whole catalog table, following pagination.
func LoadDynamoDB(ctx context.Context, client aws.DynamoDBAPI, table string) (*Store, error) {
	source := "dynamodb://" + table

	var (
		rows      []Row
		startKey  map[string]types.AttributeValue
		pageCount int
	)
	for {
		out, err := client.Scan(ctx, &dyn.ScanInput{
			TableName:         &table,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, newCatalogError(source, fmt.Errorf("scan page %d: %w", pageCount+1, err))
		}
		pageCount++

		var items []productItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, newCatalogError(source, fmt.Errorf("unmarshal page %d: %w", pageCount, err))
		}
		for _, it := range items {
			rows = append(rows, it.row())
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return normalizeRows(source, rows)
}
