package state

var (
	poolKeyBytes            = []byte("nftstake/pool")
	collectionTableKeyBytes = []byte("nftstake/collections")
	rateTableKeyBytes       = []byte("nftstake/rates")
	participantPrefix       = []byte("nftstake/participant/")
	segmentPrefix           = []byte("nftstake/segment/")
	rewardBalancePrefix     = []byte("nftstake/reward/")
	assetPrefix             = []byte("nftstake/asset/")
)
