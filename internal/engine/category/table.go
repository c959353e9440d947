package category

import "github.com/rendis/mealspin/internal/model"

// Group maps a canonical category to the keywords that identify it.
type Group struct {
	Category model.Category
	Keywords []string
}

// DefaultTable is checked in order; the first group with a keyword hit wins.
// Chicken sits above korean so "한식 > 닭요리" style labels land on chicken.
// Keywords must be lower case.
var DefaultTable = []Group{
	{model.CategoryChicken, []string{"치킨", "닭", "후라이드", "양념치킨", "chicken"}},
	{model.CategoryPizza, []string{"피자", "pizza"}},
	{model.CategoryFastFood, []string{"햄버거", "버거", "패스트푸드", "샌드위치", "burger", "fast food", "sandwich"}},
	{model.CategorySnack, []string{"분식", "떡볶이", "김밥", "tteokbokki", "gimbap"}},
	{model.CategoryCafe, []string{"카페", "커피", "음료", "cafe", "coffee"}},
	{model.CategoryDessert, []string{"디저트", "베이커리", "빵", "케이크", "dessert", "bakery", "cake"}},
	{model.CategoryChinese, []string{"중식", "중국", "중화요리", "chinese"}},
	{model.CategoryJapanese, []string{"일식", "일본", "참치회", "돈까스", "초밥", "라멘", "japanese", "sushi", "ramen"}},
	{model.CategoryWestern, []string{"양식", "서양", "이탈리안", "스테이크", "파스타", "italian", "steak", "pasta"}},
	{model.CategoryMeat, []string{"고기", "갈비", "삼겹살", "족발", "보쌈", "bbq"}},
	{model.CategorySeafood, []string{"해물", "생선", "회", "seafood"}},
	{model.CategoryNoodle, []string{"면", "국수", "라면", "noodle"}},
	{model.CategoryRiceDish, []string{"밥", "덮밥", "비빔밥", "도시락"}},
	{model.CategorySalad, []string{"샐러드", "건강식", "salad"}},
	{model.CategoryBuffet, []string{"뷔페", "buffet"}},
	{model.CategoryPub, []string{"술", "술집", "호프", "pub"}},
	{model.CategoryKorean, []string{"한식", "한국", "해장국", "한정식", "국밥", "korean"}},
}
