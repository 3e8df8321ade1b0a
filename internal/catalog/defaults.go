package catalog

// DefaultProducts is the launch assortment loaded by `shop seed --defaults`
func DefaultProducts() []ProductInput {
	return []ProductInput{
		{ID: "product1", Name: "澄み切ったスカイブルーとクリスタルハート", Category: "水色 / ピアス / イヤリング", Price: 3300, Image: "/images/product1.jpg"},
		{ID: "product2", Name: "気品を纏うラベンダーハート", Category: "紫 / ピアス / イヤリング", Price: 3300, Image: "/images/product2.jpg"},
		{ID: "product3", Name: "純真無垢なベビーピンクハート", Category: "ピンク / ピアス / イヤリング", Price: 3300, Image: "/images/product3.jpg"},
		{ID: "product4", Name: "安らぎ与えるミントグリーンハート", Category: "緑 / ピアス / イヤリング", Price: 3300, Image: "/images/product4.jpg"},
		{ID: "product5", Name: "雨空を彩る紫陽花", Category: "水色 / イヤーカフ / ピアス / イヤリング", Price: 2500, Image: "/images/product5.jpg"},
		{ID: "product6", Name: "季節を運ぶ桜リング-雪月花の冬桜-", Category: "水色 / リング", Price: 2200, Image: "/images/product6.jpg"},
	}
}
