package server

import (
	"net/http"

	accountHandler "auction-bidding/services/account/handler"
	biddingHandler "auction-bidding/services/bidding/handler"
	mediaHandler "auction-bidding/services/media/handler"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the router exposes. Signer and Live are optional.
type Dependencies struct {
	Verifier TokenVerifier
	Accounts accountHandler.AccountServiceInterface
	Bidding  biddingHandler.BiddingServiceInterface
	Signer   mediaHandler.URLSigner
	Live     http.Handler
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	router.GET("/", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"service": "auction-bidding"}, "ok")
	})

	accounts := accountHandler.NewAccountHandler(deps.Accounts)
	router.POST("/signup", accounts.SignupHandler)
	router.POST("/login", accounts.LoginHandler)

	if deps.Live != nil {
		router.GET("/ws", gin.WrapH(deps.Live))
	}

	authed := router.Group("/", AuthMiddleware(deps.Verifier))

	bids := biddingHandler.NewBiddingHandler(deps.Bidding)
	products := authed.Group("/products")
	{
		products.GET("", bids.ListListingsHandler)
		products.POST("", bids.CreateListingHandler)
		products.GET("/:id", bids.GetListingHandler)
		products.POST("/:id/bids", bids.PlaceBidHandler)
		products.DELETE("/:id", bids.CancelBidHandler)
	}

	users := authed.Group("/users")
	{
		users.GET("/me", accounts.MeHandler)
		users.GET("/me/bids", bids.MyBidsHandler)
	}

	if deps.Signer != nil {
		media := mediaHandler.NewMediaHandler(deps.Signer)
		mediaGroup := authed.Group("/media")
		{
			mediaGroup.POST("/upload-url", media.UploadURLHandler)
			mediaGroup.POST("/download-url", media.DownloadURLHandler)
		}
	}

	return router
}
