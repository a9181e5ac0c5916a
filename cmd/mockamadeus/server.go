package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	mrand "math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const tokenTTLSeconds = 1799

var carriers = []string{"LA", "G3", "AD", "TP", "AA"}

type mockServer struct {
	clientID     string
	clientSecret string
	maxDelay     time.Duration

	mu     sync.Mutex
	tokens map[string]time.Time
}

func newMockServer(clientID, clientSecret string, maxDelay time.Duration) *mockServer {
	return &mockServer{
		clientID:     clientID,
		clientSecret: clientSecret,
		maxDelay:     maxDelay,
		tokens:       map[string]time.Time{},
	}
}

func (s *mockServer) register(r gin.IRouter) {
	r.POST("/v1/security/oauth2/token", s.token)
	r.GET("/v2/shopping/flight-offers", s.flightOffers)
}

func (s *mockServer) token(c *gin.Context) {
	if c.PostForm("grant_type") != "client_credentials" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type"})
		return
	}
	if c.PostForm("client_id") != s.clientID || c.PostForm("client_secret") != s.clientSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_client"})
		return
	}

	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	tok := hex.EncodeToString(buf)

	now := time.Now()
	s.mu.Lock()
	for t, exp := range s.tokens {
		if !now.Before(exp) {
			delete(s.tokens, t)
		}
	}
	s.tokens[tok] = now.Add(tokenTTLSeconds * time.Second)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"type":         "amadeusOAuth2Token",
		"access_token": tok,
		"token_type":   "Bearer",
		"expires_in":   tokenTTLSeconds,
		"state":        "approved",
	})
}

func (s *mockServer) validToken(header string) bool {
	tok, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.tokens[tok]
	if !ok {
		return false
	}
	if !time.Now().Before(exp) {
		delete(s.tokens, tok)
		return false
	}
	return true
}

func (s *mockServer) flightOffers(c *gin.Context) {
	if !s.validToken(c.GetHeader("Authorization")) {
		c.JSON(http.StatusUnauthorized, apiErrors("Access token expired or invalid"))
		return
	}

	origin := strings.ToUpper(c.Query("originLocationCode"))
	destination := strings.ToUpper(c.Query("destinationLocationCode"))
	departure, err := time.Parse(time.DateOnly, c.Query("departureDate"))
	if origin == "" || destination == "" || err != nil {
		c.JSON(http.StatusBadRequest, apiErrors("originLocationCode, destinationLocationCode and departureDate are required"))
		return
	}

	var returnDate *time.Time
	if rd := c.Query("returnDate"); rd != "" {
		t, err := time.Parse(time.DateOnly, rd)
		if err != nil {
			c.JSON(http.StatusBadRequest, apiErrors("returnDate must be YYYY-MM-DD"))
			return
		}
		returnDate = &t
	}

	maxPrice := -1
	if mp := c.Query("maxPrice"); mp != "" {
		if maxPrice, err = strconv.Atoi(mp); err != nil {
			c.JSON(http.StatusBadRequest, apiErrors("maxPrice must be an integer"))
			return
		}
	}

	if s.maxDelay > 0 {
		time.Sleep(time.Duration(mrand.Int64N(int64(s.maxDelay))))
	}

	data := make([]gin.H, 0, len(carriers))
	for i, offer := range generateOffers(origin, destination, departure, returnDate) {
		if maxPrice >= 0 && offer.price > maxPrice {
			continue
		}
		data = append(data, offer.render(strconv.Itoa(i+1), c.DefaultQuery("currencyCode", "BRL")))
	}

	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{"count": len(data)},
		"data": data,
	})
}

type mockOffer struct {
	price       int
	itineraries [][]mockSegment
}

type mockSegment struct {
	carrier  string
	number   int
	from, to string
	dep, arr time.Time
}

// generateOffers is deterministic per route and date so repeated scans see
// a stable price curve.
func generateOffers(origin, destination string, departure time.Time, returnDate *time.Time) []mockOffer {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s-%s-%s", origin, destination, departure.Format(time.DateOnly))
	seed := int(h.Sum32())
	base := 350 + seed%3000

	offers := make([]mockOffer, 0, len(carriers))
	for i, carrier := range carriers {
		stops := i % 3
		start := departure.Add(6*time.Hour + time.Duration(i)*195*time.Minute)
		legMinutes := 60 + (seed>>uint(i))%240

		o := mockOffer{price: base + i*85 - stops*40}
		o.itineraries = append(o.itineraries, itinerary(carrier, 1000+seed%8000+i, origin, destination, start, stops, legMinutes))
		if returnDate != nil {
			back := returnDate.Add(9*time.Hour + time.Duration(i)*150*time.Minute)
			o.itineraries = append(o.itineraries, itinerary(carrier, 2000+seed%7000+i, destination, origin, back, stops, legMinutes))
			o.price = o.price*2 - 100
		}
		offers = append(offers, o)
	}
	return offers
}

var hubs = []string{"BSB", "CNF", "PTY", "MIA", "LIS"}

func itinerary(carrier string, number int, from, to string, start time.Time, stops, legMinutes int) []mockSegment {
	points := []string{from}
	for i := 0; i < stops; i++ {
		points = append(points, hubs[(number+i)%len(hubs)])
	}
	points = append(points, to)

	segs := make([]mockSegment, 0, len(points)-1)
	at := start
	for i := 0; i < len(points)-1; i++ {
		arr := at.Add(time.Duration(legMinutes) * time.Minute)
		segs = append(segs, mockSegment{carrier: carrier, number: number + i, from: points[i], to: points[i+1], dep: at, arr: arr})
		at = arr.Add(75 * time.Minute)
	}
	return segs
}

func (o mockOffer) render(id, currency string) gin.H {
	itineraries := make([]gin.H, 0, len(o.itineraries))
	var fareDetails []gin.H
	for _, it := range o.itineraries {
		segments := make([]gin.H, 0, len(it))
		for _, seg := range it {
			segments = append(segments, gin.H{
				"departure":   gin.H{"iataCode": seg.from, "at": seg.dep.Format("2006-01-02T15:04:05")},
				"arrival":     gin.H{"iataCode": seg.to, "at": seg.arr.Format("2006-01-02T15:04:05")},
				"carrierCode": seg.carrier,
				"number":      strconv.Itoa(seg.number),
			})
			fareDetails = append(fareDetails, gin.H{"segmentId": strconv.Itoa(len(fareDetails) + 1), "cabin": "ECONOMY"})
		}
		total := it[len(it)-1].arr.Sub(it[0].dep)
		itineraries = append(itineraries, gin.H{
			"duration": fmt.Sprintf("PT%dH%dM", int(total.Hours()), int(total.Minutes())%60),
			"segments": segments,
		})
	}

	return gin.H{
		"type":             "flight-offer",
		"id":               id,
		"source":           "GDS",
		"itineraries":      itineraries,
		"price":            gin.H{"currency": currency, "total": fmt.Sprintf("%d.00", o.price), "base": fmt.Sprintf("%d.00", o.price*85/100)},
		"travelerPricings": []gin.H{{"fareDetailsBySegment": fareDetails}},
	}
}

func apiErrors(detail string) gin.H {
	return gin.H{"errors": []gin.H{{"status": 400, "title": "INVALID REQUEST", "detail": detail}}}
}
